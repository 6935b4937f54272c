package generator

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/toyz/mockable/internal/models"
	"github.com/toyz/mockable/internal/utils"
)

// GeneratedHeader starts every generated file
const GeneratedHeader = "// Code generated by mockable. DO NOT EDIT.\n\n"

// Generator implements the CodeGenerator interface
type Generator struct {
	runtime  bool
	fileName string
}

// Option configures a Generator
type Option func(*Generator)

// WithRuntime controls whether unconfigured methods call the mockable runtime
// package or panic with a plain string
func WithRuntime(enabled bool) Option {
	return func(g *Generator) {
		g.runtime = enabled
	}
}

// WithFileName sets the name of the generated file within each package directory
func WithFileName(name string) Option {
	return func(g *Generator) {
		if name != "" {
			g.fileName = name
		}
	}
}

// NewGenerator creates a new code generator instance
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		runtime:  true,
		fileName: utils.DefaultGeneratedFileName,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FileName returns the generated file name
func (g *Generator) FileName() string {
	return g.fileName
}

// GenerateFile renders spec into a GeneratedFile located in dir
func (g *Generator) GenerateFile(spec FileSpec, dir string) (*models.GeneratedFile, error) {
	if spec.PackageName == "" {
		return nil, fmt.Errorf("package name cannot be empty")
	}

	content, err := g.Render(spec)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(spec.Mocks))
	for _, mock := range spec.Mocks {
		names = append(names, mock.Name)
	}
	sort.Strings(names)

	return &models.GeneratedFile{
		PackageName: spec.PackageName,
		FilePath:    filepath.Join(dir, g.fileName),
		Content:     content,
		Mocks:       names,
	}, nil
}

// Render produces the formatted source for spec. Mocks are emitted sorted by
// name so output is stable across runs.
func (g *Generator) Render(spec FileSpec) ([]byte, error) {
	mocks := append([]*models.MockTypeDescriptor(nil), spec.Mocks...)
	sort.SliceStable(mocks, func(i, j int) bool { return mocks[i].Name < mocks[j].Name })
	spec.Mocks = mocks

	body, err := newFileBuilder(spec, g.runtime).build()
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", spec.PackageName, err)
	}

	src := append([]byte(GeneratedHeader), body...)
	formatted, err := utils.ProcessImports(g.fileName, src)
	if err != nil {
		return nil, fmt.Errorf("failed to format generated code for %s: %w", spec.PackageName, err)
	}
	return formatted, nil
}
