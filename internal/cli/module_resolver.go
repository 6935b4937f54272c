package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/toyz/mockable/internal/utils"
)

// ModuleResolver handles resolving Go module information
type ModuleResolver struct {
	startDir   string
	moduleRoot string
	gomod      *utils.GoModParser
}

// NewModuleResolver creates a resolver that searches from the working directory
func NewModuleResolver() *ModuleResolver {
	return NewModuleResolverAt("")
}

// NewModuleResolverAt creates a resolver that searches for go.mod from dir upwards
func NewModuleResolverAt(dir string) *ModuleResolver {
	return &ModuleResolver{
		startDir: dir,
		gomod:    utils.NewGoModParser(utils.NewFileReader()),
	}
}

// ResolveModuleName resolves the module name for imports
// If customModule is provided, it uses that; otherwise reads from go.mod
func (r *ModuleResolver) ResolveModuleName(customModule string) (string, error) {
	start, err := r.start()
	if err != nil {
		return "", err
	}

	info, err := r.gomod.ResolveModule(start, customModule)
	if err != nil {
		r.moduleRoot = start
		if customModule == "" {
			return "", fmt.Errorf("failed to determine module name: %w (consider using --module flag)", err)
		}
		return "", fmt.Errorf("failed to determine module name: %w", err)
	}
	r.moduleRoot = info.Root
	return info.Path, nil
}

// ModuleRoot returns the directory import paths are computed relative to.
// It is set by ResolveModuleName.
func (r *ModuleResolver) ModuleRoot() string {
	return r.moduleRoot
}

// BuildPackagePath builds the full import path for a package directory
func (r *ModuleResolver) BuildPackagePath(moduleName, packageDir string) (string, error) {
	root := r.moduleRoot
	if root == "" {
		var err error
		if root, err = r.start(); err != nil {
			return "", err
		}
	}

	absPackageDir, err := filepath.Abs(packageDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve package directory: %w", err)
	}

	relPath, err := filepath.Rel(root, absPackageDir)
	if err != nil {
		return "", fmt.Errorf("failed to calculate relative path: %w", err)
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("package directory %s is outside module root %s", packageDir, root)
	}

	importPath := filepath.ToSlash(relPath)
	if importPath == "." {
		return moduleName, nil
	}
	return moduleName + "/" + importPath, nil
}

func (r *ModuleResolver) start() (string, error) {
	if r.startDir != "" {
		return filepath.Abs(r.startDir)
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return dir, nil
}
