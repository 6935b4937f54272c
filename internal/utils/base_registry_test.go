package utils

import (
	stderrors "errors"
	"sync"
	"testing"

	"github.com/toyz/mockable/internal/errors"
)

func TestBaseRegistry_BasicOperations(t *testing.T) {
	registry := NewBaseRegistry[string, int]("test", "key", "value")

	if len(registry.List()) != 0 {
		t.Errorf("expected empty registry, got %v", registry.List())
	}

	if err := registry.Register("key1", 42); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	value, exists := registry.Get("key1")
	if !exists {
		t.Error("expected key1 to exist")
	}
	if value != 42 {
		t.Errorf("expected value 42, got %d", value)
	}

	if _, exists := registry.Get("nonexistent"); exists {
		t.Error("expected nonexistent key to be missing")
	}

	// last write wins
	if err := registry.Register("key1", 7); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if value, _ := registry.Get("key1"); value != 7 {
		t.Errorf("expected overwritten value 7, got %d", value)
	}
	if keys := registry.List(); len(keys) != 1 {
		t.Errorf("expected one key, got %v", keys)
	}
}

func TestBaseRegistry_GetOrError(t *testing.T) {
	registry := NewBaseRegistry[string, int]("test", "interface name", "descriptor")

	_, err := registry.GetOrError("missing")
	if err == nil {
		t.Fatal("expected error for missing key")
	}
	if err.Error() != "interface name 'missing' is not registered" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestBaseRegistry_GetOrErrorFound(t *testing.T) {
	registry := NewBaseRegistry[string, string]("test", "key", "value")
	registry.Register("a", "value_a")

	value, err := registry.GetOrError("a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "value_a" {
		t.Errorf("expected value_a, got %q", value)
	}
}

func TestBaseRegistry_Validators(t *testing.T) {
	registry := NewBaseRegistry[string, *int]("test", "key", "value")
	registry.SetValidator(ChainValidators(
		NotEmptyKeyValidator[*int]("key"),
		NotNilValueValidator[string, int]("value"),
	))

	one := 1
	if err := registry.Register("", &one); err == nil {
		t.Error("expected empty key to be rejected")
	}
	if err := registry.Register("nil", nil); err == nil {
		t.Error("expected nil value to be rejected")
	}
	if err := registry.Register("ok", &one); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	rejectAll := func(string, *int, map[string]*int) error { return stderrors.New("rejected") }
	if err := registry.RegisterWithCustomValidator("other", &one, rejectAll); err == nil {
		t.Error("expected custom validator to reject the write")
	}
	if _, exists := registry.Get("other"); exists {
		t.Error("expected rejected write to not be committed")
	}
}

func TestBaseRegistry_PanicBestEffort(t *testing.T) {
	registry := NewBaseRegistry[string, int]("test", "key", "value")
	registry.Register("kept", 1)

	err := registry.RegisterWithCustomValidator("lost", 2, func(string, int, map[string]int) error {
		panic("validator exploded")
	})
	if !stderrors.Is(err, errors.ErrPoisoned) {
		t.Fatalf("expected poisoned error, got %v", err)
	}
	if !registry.Poisoned() {
		t.Error("expected registry to be poisoned")
	}

	// last committed contents are still served
	if v, ok := registry.Get("kept"); !ok || v != 1 {
		t.Errorf("expected kept=1, got %d (exists=%v)", v, ok)
	}
	if _, exists := registry.Get("lost"); exists {
		t.Error("expected the panicking write to not be committed")
	}

	if err := registry.Register("after", 3); err != nil {
		t.Errorf("expected best-effort registry to keep accepting writes, got %v", err)
	}
}

func TestBaseRegistry_PanicStrict(t *testing.T) {
	registry := NewBaseRegistry[string, int]("test", "key", "value")
	registry.SetRecoveryMode(RecoveryStrict)

	_ = registry.RegisterWithCustomValidator("x", 1, func(string, int, map[string]int) error {
		panic("boom")
	})

	if err := registry.Register("y", 2); !stderrors.Is(err, errors.ErrPoisoned) {
		t.Errorf("expected strict registry to refuse writes, got %v", err)
	}
	if _, err := registry.GetOrError("y"); !stderrors.Is(err, errors.ErrPoisoned) {
		t.Errorf("expected strict registry to refuse reads, got %v", err)
	}
}

func TestBaseRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewBaseRegistry[int, int]("test", "key", "value")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			registry.Register(i, i*i)
			registry.Get(i)
		}(i)
	}
	wg.Wait()

	if keys := registry.List(); len(keys) != 50 {
		t.Errorf("expected 50 items, got %d", len(keys))
	}
}
