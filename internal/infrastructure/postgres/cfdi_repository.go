package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/cfdi-sellador/internal/domain"
	"github.com/jhoicas/cfdi-sellador/internal/domain/entity"
	"github.com/jhoicas/cfdi-sellador/internal/domain/repository"
)

var _ repository.CFDIRepository = (*CFDIRepo)(nil)

// CFDIRepo implementación de CFDIRepository (usable con pool o tx).
type CFDIRepo struct {
	q Querier
}

// NewCFDIRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCFDIRepository(q Querier) *CFDIRepo {
	return &CFDIRepo{q: q}
}

const cfdiColumns = `id, company_id, series, folio, issuer_rfc, recipient_rfc, total,
	certificate_number, cadena, sealed_xml, status,
	uuid, stamped_xml, stamp_error, stamped_at, created_at, updated_at`

// Create persiste un CFDI recién sellado.
func (r *CFDIRepo) Create(ctx context.Context, c *entity.SealedCFDI) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	query := `
		INSERT INTO cfdis (` + cfdiColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.CompanyID, c.Series, c.Folio, c.IssuerRFC, c.RecipientRFC, c.Total,
		c.CertificateNumber, c.Cadena, c.SealedXML, c.Status,
		nullIfEmpty(c.UUID), nullIfEmpty(c.StampedXML), nullIfEmpty(c.StampError), c.StampedAt,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: el CFDI %s ya existe", domain.ErrConflict, c.ID)
		}
		return fmt.Errorf("insert cfdi: %w", err)
	}
	return nil
}

// GetByID obtiene un CFDI por ID. Devuelve nil, nil si no existe.
func (r *CFDIRepo) GetByID(ctx context.Context, id string) (*entity.SealedCFDI, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	c, err := scanCFDI(r.q.QueryRow(ctx, `SELECT `+cfdiColumns+` FROM cfdis WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cfdi: %w", err)
	}
	return c, nil
}

// UpdateStamp registra el resultado del timbrado.
func (r *CFDIRepo) UpdateStamp(ctx context.Context, c *entity.SealedCFDI) error {
	query := `
		UPDATE cfdis
		SET status      = $2,
		    uuid        = COALESCE($3, uuid),
		    stamped_xml = COALESCE($4, stamped_xml),
		    stamp_error = $5,
		    stamped_at  = COALESCE($6, stamped_at),
		    updated_at  = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		c.ID,
		c.Status,
		nullIfEmpty(c.UUID),
		nullIfEmpty(c.StampedXML),
		nullIfEmpty(c.StampError),
		c.StampedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: UUID %s ya registrado", domain.ErrConflict, c.UUID)
		}
		return fmt.Errorf("update cfdi: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByCompany lista los CFDI de una empresa, más recientes primero.
func (r *CFDIRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.SealedCFDI, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+cfdiColumns+` FROM cfdis WHERE company_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list cfdis: %w", err)
	}
	defer rows.Close()

	var list []*entity.SealedCFDI
	for rows.Next() {
		c, err := scanCFDI(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cfdi: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func scanCFDI(row pgx.Row) (*entity.SealedCFDI, error) {
	var c entity.SealedCFDI
	var uuidStr, stampedXML, stampError *string
	err := row.Scan(
		&c.ID, &c.CompanyID, &c.Series, &c.Folio, &c.IssuerRFC, &c.RecipientRFC, &c.Total,
		&c.CertificateNumber, &c.Cadena, &c.SealedXML, &c.Status,
		&uuidStr, &stampedXML, &stampError, &c.StampedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.UUID = derefStr(uuidStr)
	c.StampedXML = derefStr(stampedXML)
	c.StampError = derefStr(stampError)
	return &c, nil
}
