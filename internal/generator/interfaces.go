package generator

import "github.com/toyz/mockable/internal/models"

// CodeGenerator defines the interface for rendering mock files
type CodeGenerator interface {
	GenerateFile(spec FileSpec, dir string) (*models.GeneratedFile, error)
	Render(spec FileSpec) ([]byte, error)
}
