// Package memory guarda CFDI en memoria. Se usa cuando la API corre sin
// PostgreSQL y en tests; los datos se pierden al reiniciar.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jhoicas/cfdi-sellador/internal/domain"
	"github.com/jhoicas/cfdi-sellador/internal/domain/entity"
	"github.com/jhoicas/cfdi-sellador/internal/domain/repository"
)

var _ repository.CFDIRepository = (*CFDIRepo)(nil)

// CFDIRepo implementación en memoria de CFDIRepository. Seguro para uso concurrente.
type CFDIRepo struct {
	mu    sync.RWMutex
	items map[string]entity.SealedCFDI
}

// NewCFDIRepository construye el repositorio vacío.
func NewCFDIRepository() *CFDIRepo {
	return &CFDIRepo{items: make(map[string]entity.SealedCFDI)}
}

func (r *CFDIRepo) Create(_ context.Context, c *entity.SealedCFDI) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if _, ok := r.items[c.ID]; ok {
		return domain.ErrConflict
	}
	r.items[c.ID] = *c
	return nil
}

func (r *CFDIRepo) GetByID(_ context.Context, id string) (*entity.SealedCFDI, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *CFDIRepo) UpdateStamp(_ context.Context, c *entity.SealedCFDI) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[c.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if c.UUID != "" {
		for id, other := range r.items {
			if id != c.ID && other.UUID == c.UUID {
				return domain.ErrConflict
			}
		}
		cur.UUID = c.UUID
	}
	if c.StampedXML != "" {
		cur.StampedXML = c.StampedXML
	}
	if c.StampedAt != nil {
		t := *c.StampedAt
		cur.StampedAt = &t
	}
	cur.Status = c.Status
	cur.StampError = c.StampError
	cur.UpdatedAt = c.UpdatedAt
	r.items[c.ID] = cur
	return nil
}

func (r *CFDIRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.SealedCFDI, error) {
	r.mu.RLock()
	var list []*entity.SealedCFDI
	for _, c := range r.items {
		if c.CompanyID == companyID {
			c := c
			list = append(list, &c)
		}
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if offset >= len(list) {
		return nil, nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list, nil
}
