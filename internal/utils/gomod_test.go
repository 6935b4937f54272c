package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoModParser(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/demo\n\ngo 1.22\n"), 0644))
	nested := filepath.Join(root, "internal", "svc")
	require.NoError(t, os.MkdirAll(nested, 0755))

	parser := NewGoModParser(NewFileReader())

	path, err := parser.FindGoModFile(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "go.mod"), path)

	name, err := parser.ParseModuleName(path)
	require.NoError(t, err)
	assert.Equal(t, "example.com/demo", name)

	_, err = parser.ParseModuleName(filepath.Join(root, "missing.txt"))
	assert.Error(t, err)
}

func TestProcessImports_PrunesUnused(t *testing.T) {
	src := []byte("package demo\n\nimport (\n\t\"fmt\"\n\t\"strings\"\n)\n\nvar _ = strings.ToUpper\n")

	out, err := ProcessImports("demo.go", src)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "\"fmt\"")
	assert.Contains(t, string(out), "\"strings\"")
}

func TestProcessImports_InvalidSource(t *testing.T) {
	_, err := ProcessImports("demo.go", []byte("package demo\nfunc {"))
	assert.Error(t, err)
}

func TestGoModParser_ResolveModule(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/demo\n\ngo 1.22\n"), 0644))
	nested := filepath.Join(root, "pkg", "calc")
	require.NoError(t, os.MkdirAll(nested, 0755))

	parser := NewGoModParser(NewFileReader())

	tests := []struct {
		name     string
		start    string
		override string
		want     ModuleInfo
	}{
		{"from go.mod", nested, "", ModuleInfo{Path: "example.com/demo", Root: root, GoModPath: filepath.Join(root, "go.mod")}},
		{"override keeps the go.mod root", nested, "example.com/vanity", ModuleInfo{Path: "example.com/vanity", Root: root, GoModPath: filepath.Join(root, "go.mod")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := parser.ResolveModule(tt.start, tt.override)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *info)
		})
	}

	t.Run("invalid override", func(t *testing.T) {
		_, err := parser.ResolveModule(nested, "example.com/has space")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid module path override")
	})
}

func TestGoModParser_ResolveModuleWithoutGoMod(t *testing.T) {
	dir := t.TempDir()
	parser := NewGoModParser(NewFileReader())

	info, err := parser.ResolveModule(dir, "example.com/loose")
	require.NoError(t, err)
	if info.GoModPath != "" {
		t.Skip("temp dir is inside a module")
	}
	assert.Equal(t, "example.com/loose", info.Path)
	assert.Equal(t, dir, info.Root)
}
