package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/toyz/mockable/internal/utils"
)

// DirectoryScanner finds package directories to process
type DirectoryScanner struct {
	fileProcessor *utils.FileProcessor
}

// NewDirectoryScanner creates a new directory scanner
func NewDirectoryScanner() *DirectoryScanner {
	return NewDirectoryScannerFor(utils.DefaultGeneratedFileName)
}

// NewDirectoryScannerFor creates a scanner that ignores generatedName when
// deciding whether a directory holds Go sources
func NewDirectoryScannerFor(generatedName string) *DirectoryScanner {
	return &DirectoryScanner{
		fileProcessor: utils.NewFileProcessorWithReader(utils.NewFileReader(), generatedName),
	}
}

// ScanDirectories returns the absolute, sorted directories that contain Go files.
// "dir/..." scans dir and all subdirectories; a plain path names one directory.
func (s *DirectoryScanner) ScanDirectories(rootDirs []string) ([]string, error) {
	var recursive []string
	seen := make(map[string]bool)
	var dirs []string

	for _, rootDir := range rootDirs {
		if base, ok := recursiveBase(rootDir); ok {
			abs, err := filepath.Abs(base)
			if err != nil {
				return nil, utils.WrapProcessError(fmt.Sprintf("path resolution %s", base), err)
			}
			if _, err := os.Stat(abs); err != nil {
				return nil, utils.WrapProcessError(fmt.Sprintf("directory check %s", base), err)
			}
			recursive = append(recursive, abs)
			continue
		}

		abs, err := filepath.Abs(rootDir)
		if err != nil {
			return nil, utils.WrapProcessError(fmt.Sprintf("path resolution %s", rootDir), err)
		}
		hasGo, err := s.fileProcessor.HasGoFiles(abs)
		if err != nil {
			return nil, utils.WrapProcessError(fmt.Sprintf("Go file check in %s", rootDir), err)
		}
		if hasGo && !seen[abs] {
			seen[abs] = true
			dirs = append(dirs, abs)
		}
	}

	if len(recursive) > 0 {
		found, err := s.fileProcessor.ScanDirectoriesWithGoFiles(recursive)
		if err != nil {
			return nil, err
		}
		for _, dir := range found {
			if !seen[dir] {
				seen[dir] = true
				dirs = append(dirs, dir)
			}
		}
	}

	sort.Strings(dirs)
	return dirs, nil
}

// recursiveBase reports whether pattern ends in "/..." and returns the
// directory it starts from
func recursiveBase(pattern string) (string, bool) {
	if pattern == "..." {
		return ".", true
	}
	base, ok := strings.CutSuffix(filepath.ToSlash(pattern), "/...")
	if !ok {
		return "", false
	}
	if base == "" {
		base = "."
	}
	return filepath.FromSlash(base), true
}
