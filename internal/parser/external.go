package parser

import (
	"fmt"
	"go/types"
	"sync"

	"golang.org/x/tools/go/packages"
)

// PackageLoader returns the type information of an imported package as seen
// from dir
type PackageLoader interface {
	Load(dir, importPath string) (*types.Package, error)
}

// TypesLoader loads package types through go/packages and caches them per
// directory and import path
type TypesLoader struct {
	mu    sync.Mutex
	cache map[string]loadResult
}

type loadResult struct {
	pkg *types.Package
	err error
}

// NewTypesLoader creates a loader backed by the go command
func NewTypesLoader() *TypesLoader {
	return &TypesLoader{cache: make(map[string]loadResult)}
}

// Load implements PackageLoader
func (l *TypesLoader) Load(dir, importPath string) (*types.Package, error) {
	key := dir + "\x00" + importPath

	l.mu.Lock()
	defer l.mu.Unlock()

	if res, ok := l.cache[key]; ok {
		return res.pkg, res.err
	}
	pkg, err := loadTypes(dir, importPath)
	l.cache[key] = loadResult{pkg: pkg, err: err}
	return pkg, err
}

func loadTypes(dir, importPath string) (*types.Package, error) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedTypes, Dir: dir}
	pkgs, err := packages.Load(cfg, importPath)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", importPath, err)
	}
	if len(pkgs) != 1 {
		return nil, fmt.Errorf("loading %s: found %d packages", importPath, len(pkgs))
	}
	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return nil, fmt.Errorf("loading %s: %w", importPath, pkg.Errors[0])
	}
	if pkg.Types == nil {
		return nil, fmt.Errorf("loading %s: no type information", importPath)
	}
	return pkg.Types, nil
}
