package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-sellador/internal/domain"
	"github.com/jhoicas/cfdi-sellador/internal/domain/entity"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/memory"
)

func TestCFDIRepo_CrearYObtener(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCFDIRepository()
	c := &entity.SealedCFDI{CompanyID: "c-1", Status: entity.CFDIStatusSealed}

	require.NoError(t, repo.Create(ctx, c))
	require.NotEmpty(t, c.ID)
	assert.ErrorIs(t, repo.Create(ctx, c), domain.ErrConflict)

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	// La copia devuelta no comparte estado con el repositorio.
	got.Status = "OTRO"
	again, _ := repo.GetByID(ctx, c.ID)
	assert.Equal(t, entity.CFDIStatusSealed, again.Status)

	missing, err := repo.GetByID(ctx, "no-existe")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCFDIRepo_UpdateStamp(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCFDIRepository()
	a := &entity.SealedCFDI{CompanyID: "c-1", Status: entity.CFDIStatusSealed, SealedXML: "<a/>"}
	b := &entity.SealedCFDI{CompanyID: "c-1", Status: entity.CFDIStatusSealed}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	now := time.Now()
	require.NoError(t, repo.UpdateStamp(ctx, &entity.SealedCFDI{
		ID: a.ID, Status: entity.CFDIStatusStamped, UUID: "U-1", StampedXML: "<t/>", StampedAt: &now,
	}))
	got, _ := repo.GetByID(ctx, a.ID)
	assert.Equal(t, entity.CFDIStatusStamped, got.Status)
	assert.Equal(t, "U-1", got.UUID)
	assert.Equal(t, "<a/>", got.SealedXML)
	assert.Equal(t, "<t/>", got.CurrentXML())

	err := repo.UpdateStamp(ctx, &entity.SealedCFDI{ID: b.ID, Status: entity.CFDIStatusStamped, UUID: "U-1"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.ErrorIs(t, repo.UpdateStamp(ctx, &entity.SealedCFDI{ID: "x"}), domain.ErrNotFound)
}

func TestCFDIRepo_ListByCompany(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCFDIRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, folio := range []string{"1", "2", "3"} {
		require.NoError(t, repo.Create(ctx, &entity.SealedCFDI{
			CompanyID: "c-1", Folio: folio, CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, repo.Create(ctx, &entity.SealedCFDI{CompanyID: "c-2", Folio: "9"}))

	list, err := repo.ListByCompany(ctx, "c-1", 2, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "3", list[0].Folio)
	assert.Equal(t, "2", list[1].Folio)

	list, err = repo.ListByCompany(ctx, "c-1", 2, 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "1", list[0].Folio)

	list, err = repo.ListByCompany(ctx, "c-1", 2, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}
