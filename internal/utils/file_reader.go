package utils

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
)

// FileReader parses Go files against a shared token.FileSet so positions
// from different files stay comparable
type FileReader struct {
	fileSet *token.FileSet
}

// NewFileReader creates a new FileReader instance
func NewFileReader() *FileReader {
	return &FileReader{
		fileSet: token.NewFileSet(),
	}
}

// NewFileReaderWithFileSet creates a FileReader that records positions in fset
func NewFileReaderWithFileSet(fset *token.FileSet) *FileReader {
	return &FileReader{fileSet: fset}
}

// ParseGoFile parses a Go source file, keeping comments
func (fr *FileReader) ParseGoFile(filePath string) (*ast.File, error) {
	cleanPath := filepath.Clean(filePath)
	content, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filepath.Base(cleanPath), err)
	}
	return fr.ParseGoSource(cleanPath, content)
}

// ParseGoSource parses Go source code held in memory
func (fr *FileReader) ParseGoSource(filename string, source []byte) (*ast.File, error) {
	file, err := parser.ParseFile(fr.fileSet, filename, source, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Go source: %w", err)
	}
	return file, nil
}

// ReadFile reads a file and returns its contents as a string
func (fr *FileReader) ReadFile(filePath string) (string, error) {
	content, err := os.ReadFile(filepath.Clean(filePath))
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", filepath.Base(filePath), err)
	}
	return string(content), nil
}
