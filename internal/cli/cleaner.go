package cli

import (
	"fmt"
	"sort"

	"github.com/toyz/mockable/internal/utils"
)

// Cleaner handles cleaning up generated files
type Cleaner struct {
	fileProcessor *utils.FileProcessor
}

// NewCleaner creates a cleaner for the default generated file name
func NewCleaner() *Cleaner {
	return NewCleanerFor(utils.DefaultGeneratedFileName)
}

// NewCleanerFor creates a cleaner for generatedName
func NewCleanerFor(generatedName string) *Cleaner {
	return &Cleaner{
		fileProcessor: utils.NewFileProcessorWithReader(utils.NewFileReader(), generatedName),
	}
}

// CleanGeneratedFiles removes generated files from the given directories and
// returns their paths. "dir/..." cleans dir and all subdirectories.
// Only files carrying the generated-code header are removed.
func (c *Cleaner) CleanGeneratedFiles(directories []string) ([]string, error) {
	var removed []string

	for _, dir := range directories {
		if base, ok := recursiveBase(dir); ok {
			files, err := c.fileProcessor.CleanDirectories([]string{base})
			removed = append(removed, files...)
			if err != nil {
				return removed, fmt.Errorf("failed to clean directory %s: %w", dir, err)
			}
			continue
		}

		file, err := c.fileProcessor.RemoveGenerated(dir)
		if err != nil {
			return removed, fmt.Errorf("failed to clean directory %s: %w", dir, err)
		}
		if file != "" {
			removed = append(removed, file)
		}
	}

	sort.Strings(removed)
	return removed, nil
}

// RemoveStale deletes the generated file of a package that no longer has mocks
func (c *Cleaner) RemoveStale(dir string) (string, error) {
	return c.fileProcessor.RemoveGenerated(dir)
}
