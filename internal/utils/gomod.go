package utils

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
)

// ModuleInfo describes the module generated import paths are rooted in
type ModuleInfo struct {
	Path      string // module path, from go.mod or an override
	Root      string // directory package paths are computed relative to
	GoModPath string // empty when no go.mod was found
}

// GoModParser provides utilities for parsing go.mod files
type GoModParser struct {
	fileReader *FileReader
}

// NewGoModParser creates a new go.mod parser
func NewGoModParser(fileReader *FileReader) *GoModParser {
	return &GoModParser{
		fileReader: fileReader,
	}
}

// ParseModuleName extracts the module name from a go.mod file
func (p *GoModParser) ParseModuleName(goModPath string) (string, error) {
	cleanPath := filepath.Clean(goModPath)
	if !strings.HasSuffix(cleanPath, "go.mod") {
		return "", fmt.Errorf("file is not a go.mod file: %s", goModPath)
	}

	content, err := p.fileReader.ReadFile(cleanPath)
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod file: %w", err)
	}

	modFile, err := modfile.ParseLax(cleanPath, []byte(content), nil)
	if err != nil {
		return "", fmt.Errorf("failed to parse go.mod file: %w", err)
	}

	if modFile.Module == nil {
		return "", fmt.Errorf("no module declaration found in go.mod")
	}

	return modFile.Module.Mod.Path, nil
}

// ResolveModule finds the module enclosing startDir. A non-empty override
// replaces the module path declared in go.mod, and also allows resolving
// outside any module, in which case startDir is the root.
func (p *GoModParser) ResolveModule(startDir, override string) (*ModuleInfo, error) {
	info := &ModuleInfo{Root: startDir}

	goModPath, findErr := p.FindGoModFile(startDir)
	if findErr == nil {
		info.GoModPath = goModPath
		info.Root = filepath.Dir(goModPath)
	}

	if override != "" {
		if err := module.CheckImportPath(override); err != nil {
			return nil, fmt.Errorf("invalid module path override: %w", err)
		}
		info.Path = override
		return info, nil
	}
	if findErr != nil {
		return nil, findErr
	}

	name, err := p.ParseModuleName(goModPath)
	if err != nil {
		return nil, err
	}
	info.Path = name
	return info, nil
}

// FindGoModFile searches for go.mod file starting from the given directory and walking up
func (p *GoModParser) FindGoModFile(startDir string) (string, error) {
	currentDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		goModPath := filepath.Join(currentDir, "go.mod")
		if content, err := p.fileReader.ReadFile(goModPath); err == nil && content != "" {
			return goModPath, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", fmt.Errorf("go.mod file not found")
}
