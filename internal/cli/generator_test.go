package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/mockable/internal/errors"
	"github.com/toyz/mockable/internal/generator"
	"github.com/toyz/mockable/internal/utils"
)

const calcSource = `package calc

//mock::mockable Add = 42
type Calc interface {
	Add(a, b int32) int32
	ID() int32
}
`

const storeSource = `package store

//mock::mockable
type Store interface {
	Get(key string) (string, bool)
}
`

const implSource = `package impl

import "example.com/app/store"

//mock::returns Get = ("hit", true)
//mock::generate store.Store
type Fixed struct{}
`

func newTestGenerator(t *testing.T, root string, cfg Config) (*Generator, *bytes.Buffer) {
	t.Helper()
	var stderr bytes.Buffer
	diagnostics := utils.NewQuietDiagnostics()
	diagnostics.SetOutput(&bytes.Buffer{}, &stderr)

	g := NewGenerator(cfg, diagnostics)
	g.SetModuleResolver(NewModuleResolverAt(root))
	return g, &stderr
}

func testModule(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	writeGoMod(t, root, "example.com/app")
	writeFiles(t, root, files)
	return root
}

func TestGenerator_Run(t *testing.T) {
	root := testModule(t, map[string]string{
		"calc/calc.go":   calcSource,
		"store/store.go": storeSource,
		"impl/impl.go":   implSource,
		"plain/plain.go": "package plain\n",
	})

	cfg := DefaultConfig()
	cfg.Directories = []string{root + "/..."}
	g, stderr := newTestGenerator(t, root, cfg)

	require.NoError(t, g.Run())
	assert.Empty(t, stderr.String())

	calc, err := os.ReadFile(filepath.Join(root, "calc", utils.DefaultGeneratedFileName))
	require.NoError(t, err)
	assert.Contains(t, string(calc), generator.GeneratedHeader+"package calc")
	assert.Contains(t, string(calc), "type MockCalc struct{}")
	assert.Contains(t, string(calc), "return 42")
	assert.Contains(t, string(calc), `panic(mockable.Unimplemented("MockCalc", "ID"))`)
	assert.Contains(t, string(calc), "var _ Calc = (*MockCalc)(nil)")

	impl, err := os.ReadFile(filepath.Join(root, "impl", utils.DefaultGeneratedFileName))
	require.NoError(t, err)
	assert.Contains(t, string(impl), `"example.com/app/store"`)
	assert.Contains(t, string(impl), "Fixed) Get(key string) (string, bool)")
	assert.Contains(t, string(impl), `return "hit", true`)
	assert.Contains(t, string(impl), "var _ store.Store = (*Fixed)(nil)")

	assert.NoFileExists(t, filepath.Join(root, "store", utils.DefaultGeneratedFileName))
	assert.NoFileExists(t, filepath.Join(root, "plain", utils.DefaultGeneratedFileName))

	summary := g.GetSummary()
	assert.Equal(t, 4, summary.PackagesProcessed)
	assert.Equal(t, 2, summary.InterfacesFound)
	assert.Equal(t, 2, summary.MocksGenerated)
	assert.Len(t, summary.GeneratedFiles, 2)
	assert.Zero(t, summary.Errors)
}

func TestGenerator_RunIsIdempotent(t *testing.T) {
	root := testModule(t, map[string]string{"calc/calc.go": calcSource})
	cfg := DefaultConfig()
	cfg.Directories = []string{root + "/..."}
	target := filepath.Join(root, "calc", utils.DefaultGeneratedFileName)

	g, _ := newTestGenerator(t, root, cfg)
	require.NoError(t, g.Run())
	first, err := os.ReadFile(target)
	require.NoError(t, err)

	g, _ = newTestGenerator(t, root, cfg)
	require.NoError(t, g.Run())
	second, err := os.ReadFile(target)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestGenerator_ErrorsWriteNothing(t *testing.T) {
	root := testModule(t, map[string]string{
		"calc/calc.go": calcSource,
		"impl/impl.go": "package impl\n\n//mock::generate Missing\ntype Fixed struct{}\n",
	})

	cfg := DefaultConfig()
	cfg.Directories = []string{root + "/..."}
	g, stderr := newTestGenerator(t, root, cfg)

	err := g.Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrGeneration)
	assert.Contains(t, stderr.String(), "impl.go:3:")
	assert.Contains(t, stderr.String(), "error: ")
	assert.Contains(t, stderr.String(), "Missing")
	assert.Equal(t, 1, g.GetSummary().Errors)

	assert.NoFileExists(t, filepath.Join(root, "calc", utils.DefaultGeneratedFileName))
}

func TestGenerator_UnusedOverridePolicy(t *testing.T) {
	files := map[string]string{
		"impl/impl.go": "package impl\n\n//mock::returns Nope = 1\ntype Fixed struct{}\n",
	}

	root := testModule(t, files)
	cfg := DefaultConfig()
	cfg.Directories = []string{root + "/..."}
	g, stderr := newTestGenerator(t, root, cfg)
	require.NoError(t, g.Run())
	assert.Contains(t, stderr.String(), "warning: ")
	assert.Equal(t, 1, g.GetSummary().Warnings)

	root = testModule(t, files)
	cfg.Directories = []string{root + "/..."}
	cfg.UnusedOverrides = "error"
	g, _ = newTestGenerator(t, root, cfg)
	assert.Error(t, g.Run())
}

func TestGenerator_DryRun(t *testing.T) {
	root := testModule(t, map[string]string{"calc/calc.go": calcSource})
	cfg := DefaultConfig()
	cfg.Directories = []string{root + "/..."}
	cfg.DryRun = true

	g, _ := newTestGenerator(t, root, cfg)
	require.NoError(t, g.Run())

	assert.NoFileExists(t, filepath.Join(root, "calc", utils.DefaultGeneratedFileName))
	assert.Len(t, g.GetSummary().GeneratedFiles, 1)
}

func TestGenerator_RemovesStaleFiles(t *testing.T) {
	root := testModule(t, map[string]string{
		"calc/calc.go":             calcSource,
		"old/old.go":               "package old\n",
		"old/mockable_autogen.go":  generator.GeneratedHeader + "package old\n\ntype MockGone struct{}\n",
		"hand/hand.go":             "package hand\n",
		"hand/mockable_autogen.go": "package hand\n\ntype Kept struct{}\n",
	})
	cfg := DefaultConfig()
	cfg.Directories = []string{root + "/..."}

	g, _ := newTestGenerator(t, root, cfg)
	require.NoError(t, g.Run())

	assert.NoFileExists(t, filepath.Join(root, "old", utils.DefaultGeneratedFileName))
	assert.FileExists(t, filepath.Join(root, "hand", utils.DefaultGeneratedFileName))
	assert.Equal(t, []string{filepath.Join(root, "old", utils.DefaultGeneratedFileName)}, g.GetSummary().RemovedFiles)
}

func TestGenerator_NoRuntimeAndCustomOutput(t *testing.T) {
	root := testModule(t, map[string]string{"calc/calc.go": calcSource})
	cfg := DefaultConfig()
	cfg.Directories = []string{filepath.Join(root, "calc")}
	cfg.Runtime = false
	cfg.Output = "mocks_gen.go"
	cfg.MockPrefix = "Fake"

	g, _ := newTestGenerator(t, root, cfg)
	require.NoError(t, g.Run())

	content, err := os.ReadFile(filepath.Join(root, "calc", "mocks_gen.go"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "type FakeCalc struct{}")
	assert.NotContains(t, string(content), "pkg/mockable")
	assert.Contains(t, string(content), `panic("mockable: FakeCalc.ID is not configured")`)
}

func TestGenerator_InvalidConfig(t *testing.T) {
	root := testModule(t, map[string]string{"calc/calc.go": calcSource})
	cfg := DefaultConfig()
	cfg.Directories = []string{root}
	cfg.LockRecovery = "sometimes"

	g, _ := newTestGenerator(t, root, cfg)
	err := g.Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConfig)
}

func TestGenerator_NoPackages(t *testing.T) {
	root := testModule(t, map[string]string{"docs/README.md": "# docs"})
	cfg := DefaultConfig()
	cfg.Directories = []string{root + "/..."}

	g, _ := newTestGenerator(t, root, cfg)
	err := g.Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrFileSystem)
}
