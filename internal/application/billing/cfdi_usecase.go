package billing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-sellador/internal/application/dto"
	"github.com/jhoicas/cfdi-sellador/internal/domain"
	"github.com/jhoicas/cfdi-sellador/internal/domain/entity"
	"github.com/jhoicas/cfdi-sellador/internal/domain/repository"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/sat"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/sat/signer"
	"github.com/jhoicas/cfdi-sellador/pkg/logger"
	pkgsat "github.com/jhoicas/cfdi-sellador/pkg/sat"
)

// CSDConfig rutas del Certificado de Sello Digital del emisor.
type CSDConfig struct {
	CertPath    string
	KeyPath     string
	KeyPassword string
	KeyFormat   pkgsat.KeyFormat
}

// CFDIUseCase sella, timbra y consulta CFDI de una empresa.
type CFDIUseCase struct {
	pipeline *SealPipeline
	repo     repository.CFDIRepository
	stamper  Stamper // nil = sin PAC configurado
	pdf      CFDIPDFGenerator
	csd      CSDConfig
	log      *logger.Logger
	now      func() time.Time
}

// NewCFDIUseCase construye el caso de uso inyectando todas sus dependencias.
func NewCFDIUseCase(
	pipeline *SealPipeline,
	repo repository.CFDIRepository,
	stamper Stamper,
	pdf CFDIPDFGenerator,
	csd CSDConfig,
	log *logger.Logger,
) *CFDIUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &CFDIUseCase{
		pipeline: pipeline,
		repo:     repo,
		stamper:  stamper,
		pdf:      pdf,
		csd:      csd,
		log:      log.Named("cfdi"),
		now:      time.Now,
	}
}

// Seal sella el comprobante con el CSD configurado y lo persiste en estado SEALED.
func (uc *CFDIUseCase) Seal(ctx context.Context, companyID string, in dto.SealCFDIRequest) (*dto.CFDIResponse, error) {
	if companyID == "" {
		return nil, domain.ErrUnauthorized
	}
	now := uc.now()
	doc, err := DocumentFromRequest(in, now)
	if err != nil {
		return nil, err
	}
	creds, err := LoadCredentials(uc.csd)
	if err != nil {
		return nil, err
	}
	res, err := uc.pipeline.Seal(doc, creds)
	if err != nil {
		return nil, err
	}

	issuer, _ := doc.Issuer()
	recipient, _ := doc.Recipient()
	total, _ := decimal.NewFromString(doc.Total)
	record := &entity.SealedCFDI{
		CompanyID:         companyID,
		Series:            doc.Series,
		Folio:             doc.Folio,
		IssuerRFC:         issuer.Rfc,
		RecipientRFC:      recipient.Rfc,
		Total:             total,
		CertificateNumber: res.Seal.CertificateNumber,
		Cadena:            res.Cadena,
		SealedXML:         string(res.Sealed),
		Status:            entity.CFDIStatusSealed,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := uc.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("cfdi: guardar sellado: %w", err)
	}
	uc.log.Info().Str("id", record.ID).Str("empresa", companyID).Msg("CFDI sellado guardado")

	resp := toCFDIResponse(record)
	resp.CertificateExpired = res.CertificateExpired
	return resp, nil
}

// Stamp envía al PAC un CFDI sellado. Si el PAC lo rechaza queda en STAMP_ERROR
// con el mensaje del PAC y se devuelve el error.
func (uc *CFDIUseCase) Stamp(ctx context.Context, companyID, id string) (*dto.CFDIResponse, error) {
	record, err := uc.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if uc.stamper == nil {
		return nil, fmt.Errorf("%w: no hay PAC configurado", domain.ErrConflict)
	}
	if !record.Stampable() {
		return nil, fmt.Errorf("%w: el CFDI está en estado %s", domain.ErrConflict, record.Status)
	}

	receipt, stampErr := uc.stamper.Stamp(ctx, []byte(record.SealedXML))
	record.UpdatedAt = uc.now()
	if stampErr != nil {
		// Un timeout o cancelación no es un rechazo del PAC: el estado no cambia.
		if !errors.Is(stampErr, domain.ErrStamp) && !errors.Is(stampErr, domain.ErrPACAuth) {
			return nil, stampErr
		}
		record.Status = entity.CFDIStatusStampError
		record.StampError = stampErr.Error()
		if err := uc.repo.UpdateStamp(ctx, record); err != nil {
			uc.log.Error().Err(err).Str("id", id).Msg("no se pudo registrar el error de timbrado")
		}
		return nil, stampErr
	}

	stampedAt := receipt.StampedAt
	record.Status = entity.CFDIStatusStamped
	record.UUID = receipt.UUID
	record.StampedXML = string(receipt.StampedXML)
	record.StampError = ""
	record.StampedAt = &stampedAt
	if err := uc.repo.UpdateStamp(ctx, record); err != nil {
		return nil, fmt.Errorf("cfdi: guardar timbre %s: %w", receipt.UUID, err)
	}
	return toCFDIResponse(record), nil
}

// Get devuelve un CFDI de la empresa.
func (uc *CFDIUseCase) Get(ctx context.Context, companyID, id string) (*dto.CFDIResponse, error) {
	record, err := uc.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return toCFDIResponse(record), nil
}

// List devuelve los CFDI de la empresa, más recientes primero.
func (uc *CFDIUseCase) List(ctx context.Context, companyID string, page dto.PageRequest) (*dto.CFDIListResponse, error) {
	if companyID == "" {
		return nil, domain.ErrUnauthorized
	}
	page.DefaultPage()
	records, err := uc.repo.ListByCompany(ctx, companyID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("cfdi: listar: %w", err)
	}
	out := &dto.CFDIListResponse{
		Items: make([]dto.CFDIResponse, 0, len(records)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, r := range records {
		out.Items = append(out.Items, *toCFDIResponse(r))
	}
	return out, nil
}

// DownloadPDF genera la representación impresa del XML vigente (timbrado si existe).
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si el CFDI no existe.
//   - domain.ErrForbidden        si no pertenece a la empresa del token.
func (uc *CFDIUseCase) DownloadPDF(ctx context.Context, companyID, id string) (pdfBytes []byte, filename string, err error) {
	record, err := uc.load(ctx, companyID, id)
	if err != nil {
		return nil, "", err
	}
	view, err := sat.ParseComprobante([]byte(record.CurrentXML()))
	if err != nil {
		return nil, "", fmt.Errorf("pdf: leer XML: %w", err)
	}
	pdfBytes, err = uc.pdf.GenerateCFDIPDF(ctx, view)
	if err != nil {
		return nil, "", err
	}
	return pdfBytes, pdfFilename(record), nil
}

func (uc *CFDIUseCase) load(ctx context.Context, companyID, id string) (*entity.SealedCFDI, error) {
	if companyID == "" {
		return nil, domain.ErrUnauthorized
	}
	record, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("cfdi: obtener %s: %w", id, err)
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}
	if record.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return record, nil
}

// LoadCredentials lee el CSD de disco. Se llama en cada sellado porque
// SealPipeline destruye la llave al terminar.
func LoadCredentials(csd CSDConfig) (Credentials, error) {
	if csd.CertPath == "" || csd.KeyPath == "" {
		return Credentials{}, fmt.Errorf("%w: CFDI_CERT_PATH y CFDI_KEY_PATH son obligatorios", domain.ErrKeyLoad)
	}
	cert, err := os.ReadFile(csd.CertPath)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: leer %s: %v", domain.ErrCertificateParse, csd.CertPath, err)
	}
	key, err := signer.ReadKeyFile(csd.KeyPath, csd.KeyPassword, csd.KeyFormat)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{Certificate: cert, Key: key}, nil
}

func toCFDIResponse(r *entity.SealedCFDI) *dto.CFDIResponse {
	resp := &dto.CFDIResponse{
		ID:                r.ID,
		Series:            r.Series,
		Folio:             r.Folio,
		IssuerRFC:         r.IssuerRFC,
		RecipientRFC:      r.RecipientRFC,
		Total:             r.Total,
		Status:            r.Status,
		CertificateNumber: r.CertificateNumber,
		Cadena:            r.Cadena,
		UUID:              r.UUID,
		StampError:        r.StampError,
		StampedAt:         r.StampedAt,
		XML:               r.CurrentXML(),
		CreatedAt:         r.CreatedAt,
	}
	if view, err := sat.ParseComprobante([]byte(r.SealedXML)); err == nil {
		resp.Seal = view.Seal.Signature
	}
	return resp
}

func pdfFilename(r *entity.SealedCFDI) string {
	if r.UUID != "" {
		return "CFDI-" + r.UUID + ".pdf"
	}
	name := strings.TrimSpace(r.Series + r.Folio)
	if name == "" {
		name = r.ID
	}
	return "CFDI-" + name + ".pdf"
}
