package repository

import (
	"context"

	"github.com/jhoicas/cfdi-sellador/internal/domain/entity"
)

// CFDIRepository define el puerto de persistencia de los CFDI sellados.
type CFDIRepository interface {
	Create(ctx context.Context, cfdi *entity.SealedCFDI) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.SealedCFDI, error)
	// UpdateStamp actualiza estado, uuid, xml timbrado, error y fecha de timbrado.
	UpdateStamp(ctx context.Context, cfdi *entity.SealedCFDI) error
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.SealedCFDI, error)
}
