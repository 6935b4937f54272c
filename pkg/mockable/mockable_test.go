package mockable

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnimplemented(t *testing.T) {
	err := Unimplemented("MockCalc", "ID")

	assert.ErrorIs(t, err, ErrUnimplemented)
	assert.Equal(t, "mockable: MockCalc.ID called but no return value is configured", err.Error())

	var target *UnimplementedError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, "MockCalc", target.Mock)
	assert.Equal(t, "ID", target.Method)
}

func TestRecover(t *testing.T) {
	got := Recover(func() { panic(Unimplemented("MockFoo", "Foo")) })
	require.NotNil(t, got)
	assert.Equal(t, "Foo", got.Method)

	assert.Nil(t, Recover(func() {}))

	assert.PanicsWithValue(t, "other", func() {
		Recover(func() { panic("other") })
	})
}

func TestIsUnimplemented(t *testing.T) {
	assert.True(t, IsUnimplemented(Unimplemented("M", "X")))
	assert.False(t, IsUnimplemented("string panic"))
	assert.False(t, IsUnimplemented(errors.New("other")))
}
