package registry

import (
	"github.com/toyz/mockable/internal/annotations"
	"github.com/toyz/mockable/internal/models"
)

// MockRegistry defines the cross-declaration configuration store operations
type MockRegistry interface {
	RegisterInterface(name string, desc *models.InterfaceDescriptor) error
	SetReturnValue(owner, method string, expr *annotations.Expression) error
	GenerateMock(owner, iface string) (*models.MockTypeDescriptor, error)
	Interface(name string) (*models.InterfaceDescriptor, bool)
}

var _ MockRegistry = (*Store)(nil)
