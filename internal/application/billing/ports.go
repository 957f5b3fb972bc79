package billing

import (
	"context"
	"time"

	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/sat"
)

// ArtifactStore persiste el XML producido por el pipeline y devuelve dónde quedó.
type ArtifactStore interface {
	Save(data []byte) (string, error)
}

// StampReceipt respuesta del PAC a un timbrado exitoso.
type StampReceipt struct {
	UUID       string // TimbreFiscalDigital/@UUID
	StampedXML []byte
	StampedAt  time.Time
}

// Stamper envía un CFDI sellado al PAC para su timbrado.
// La autenticación es responsabilidad de la implementación.
type Stamper interface {
	Stamp(ctx context.Context, sealed []byte) (*StampReceipt, error)
}

// CFDIPDFGenerator genera la representación impresa de un comprobante ya leído.
type CFDIPDFGenerator interface {
	GenerateCFDIPDF(ctx context.Context, view *sat.ComprobanteView) ([]byte, error)
}
