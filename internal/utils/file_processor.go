package utils

import (
	"fmt"
	"go/ast"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultGeneratedFileName is the file written into every package that has mocks
const DefaultGeneratedFileName = "mockable_autogen.go"

// FileProcessor provides utilities for common file processing operations
type FileProcessor struct {
	fileReader    *FileReader
	generatedName string
}

// NewFileProcessor creates a new file processor
func NewFileProcessor() *FileProcessor {
	return NewFileProcessorWithReader(NewFileReader(), DefaultGeneratedFileName)
}

// NewFileProcessorWithReader creates a file processor with an existing FileReader.
// generatedName is the per-package output file the processor skips and cleans.
func NewFileProcessorWithReader(reader *FileReader, generatedName string) *FileProcessor {
	if generatedName == "" {
		generatedName = DefaultGeneratedFileName
	}
	return &FileProcessor{
		fileReader:    reader,
		generatedName: generatedName,
	}
}

// FileFilter defines a function that determines whether a file should be processed
type FileFilter func(path string, info os.DirEntry) bool

// DirectoryFilter defines a function that determines whether a directory should be processed
type DirectoryFilter func(path string, info os.DirEntry) bool

// GoSourceFilter filters for .go files, excluding tests and the generated file
func GoSourceFilter(generatedName string) FileFilter {
	return func(path string, info os.DirEntry) bool {
		if info.IsDir() {
			return false
		}

		name := info.Name()
		return strings.HasSuffix(name, ".go") &&
			!strings.HasSuffix(name, "_test.go") &&
			name != generatedName
	}
}

// DefaultDirectoryFilter skips common directories that shouldn't contain source code
func DefaultDirectoryFilter() DirectoryFilter {
	skipDirs := map[string]bool{
		"vendor":       true,
		"node_modules": true,
		"testdata":     true,
	}

	return func(path string, info os.DirEntry) bool {
		if !info.IsDir() {
			return true
		}

		name := info.Name()

		// Skip hidden and underscore directories, the go tool ignores them too
		if (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) && name != "." && name != ".." {
			return false
		}

		return !skipDirs[name]
	}
}

// ScanDirectoriesWithGoFiles scans directories and returns those containing Go files, sorted
func (fp *FileProcessor) ScanDirectoriesWithGoFiles(rootDirs []string) ([]string, error) {
	var packageDirs []string
	visited := make(map[string]bool)

	for _, rootDir := range rootDirs {
		dirs, err := fp.scanDirectoryRecursive(rootDir, visited)
		if err != nil {
			return nil, err
		}
		packageDirs = append(packageDirs, dirs...)
	}

	sort.Strings(packageDirs)
	return packageDirs, nil
}

func (fp *FileProcessor) scanDirectoryRecursive(dir string, visited map[string]bool) ([]string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, WrapProcessError(fmt.Sprintf("path resolution %s", dir), err)
	}

	if visited[absDir] {
		return nil, nil
	}
	visited[absDir] = true

	var packageDirs []string

	hasGoFiles, err := fp.HasGoFiles(dir)
	if err != nil {
		return nil, WrapProcessError(fmt.Sprintf("Go file check in %s", dir), err)
	}

	if hasGoFiles {
		packageDirs = append(packageDirs, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, WrapProcessError(fmt.Sprintf("directory read %s", dir), err)
	}

	directoryFilter := DefaultDirectoryFilter()

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		entryPath := filepath.Join(dir, entry.Name())
		if !directoryFilter(entryPath, entry) {
			continue
		}

		subDirs, err := fp.scanDirectoryRecursive(entryPath, visited)
		if err != nil {
			return nil, err
		}
		packageDirs = append(packageDirs, subDirs...)
	}

	return packageDirs, nil
}

// HasGoFiles checks if a directory contains any .go files (excluding test files and generated files)
func (fp *FileProcessor) HasGoFiles(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}

	fileFilter := GoSourceFilter(fp.generatedName)

	for _, entry := range entries {
		if fileFilter(filepath.Join(dir, entry.Name()), entry) {
			return true, nil
		}
	}

	return false, nil
}

// ParseDirectoryFiles parses all Go files in a directory. Paths are returned in
// sorted order alongside the file map so callers can iterate deterministically.
func (fp *FileProcessor) ParseDirectoryFiles(dirPath string) (map[string]*ast.File, []string, string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, nil, "", WrapProcessError(fmt.Sprintf("directory read %s", dirPath), err)
	}

	files := make(map[string]*ast.File)
	var order []string
	var packageName string
	fileFilter := GoSourceFilter(fp.generatedName)

	for _, entry := range entries {
		filePath := filepath.Join(dirPath, entry.Name())
		if !fileFilter(filePath, entry) {
			continue
		}

		file, err := fp.fileReader.ParseGoFile(filePath)
		if err != nil {
			return nil, nil, "", WrapProcessError(fmt.Sprintf("file parse %s", entry.Name()), err)
		}

		if packageName == "" {
			packageName = file.Name.Name
		} else if file.Name.Name != packageName {
			return nil, nil, "", fmt.Errorf("multiple packages found in directory: %s and %s", packageName, file.Name.Name)
		}

		files[filePath] = file
		order = append(order, filePath)
	}

	if len(files) == 0 {
		return nil, nil, "", fmt.Errorf("no Go files found in directory")
	}

	sort.Strings(order)
	return files, order, packageName, nil
}

// CleanDirectories removes generated files from directory trees
func (fp *FileProcessor) CleanDirectories(baseDirs []string) ([]string, error) {
	var removedFiles []string

	for _, baseDir := range baseDirs {
		if err := fp.cleanDirectory(baseDir, &removedFiles); err != nil {
			return removedFiles, WrapProcessError(fmt.Sprintf("directory clean %s", baseDir), err)
		}
	}

	sort.Strings(removedFiles)
	return removedFiles, nil
}

func (fp *FileProcessor) cleanDirectory(baseDir string, removedFiles *[]string) error {
	startDir := "."
	if baseDir != "" {
		startDir = baseDir
	}

	directoryFilter := DefaultDirectoryFilter()

	return filepath.WalkDir(startDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != startDir && !directoryFilter(path, d) {
			return filepath.SkipDir
		}
		return fp.cleanSingleDirectory(path, removedFiles)
	})
}

// RemoveGenerated deletes the generated file in dir. Files without the
// generated-code header are left alone. It returns the removed path, or "".
func (fp *FileProcessor) RemoveGenerated(dir string) (string, error) {
	var removed []string
	if err := fp.cleanSingleDirectory(dir, &removed); err != nil {
		return "", err
	}
	if len(removed) == 0 {
		return "", nil
	}
	return removed[0], nil
}

func (fp *FileProcessor) cleanSingleDirectory(dir string, removedFiles *[]string) error {
	generated := filepath.Join(dir, fp.generatedName)

	content, err := os.ReadFile(generated)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return WrapProcessError(fmt.Sprintf("file check %s", generated), err)
	}
	if !IsGeneratedSource(content) {
		return nil
	}

	if err := os.Remove(generated); err != nil {
		return WrapProcessError(fmt.Sprintf("file removal %s", generated), err)
	}

	*removedFiles = append(*removedFiles, generated)
	return nil
}

// IsGeneratedSource reports whether src carries the standard
// "// Code generated ... DO NOT EDIT." line before the package clause
func IsGeneratedSource(src []byte) bool {
	for _, line := range strings.Split(string(src), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "package ") {
			return false
		}
		if strings.HasPrefix(line, "// Code generated ") && strings.HasSuffix(line, " DO NOT EDIT.") {
			return true
		}
	}
	return false
}

// GetFileReader returns the underlying FileReader
func (fp *FileProcessor) GetFileReader() *FileReader {
	return fp.fileReader
}
