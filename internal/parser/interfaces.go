package parser

import (
	"github.com/toyz/mockable/internal/models"
)

// PackageParser defines the interface for parsing Go packages and extracting directive metadata
type PackageParser interface {
	ParseDirectory(path, importPath string) (*models.PackageMetadata, error)
	ParseSource(filename, source, importPath string) (*models.PackageMetadata, error)
}
