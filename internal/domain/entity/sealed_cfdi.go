package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un CFDI persistido.
const (
	CFDIStatusSealed     = "SEALED"      // Sellado, pendiente de timbrar
	CFDIStatusStamped    = "STAMPED"     // Timbrado por el PAC
	CFDIStatusStampError = "STAMP_ERROR" // El PAC lo rechazó; puede reintentarse manualmente
)

// SealedCFDI representa un comprobante sellado y, si aplica, su timbre.
type SealedCFDI struct {
	ID                string
	CompanyID         string
	Series            string
	Folio             string
	IssuerRFC         string
	RecipientRFC      string
	Total             decimal.Decimal
	CertificateNumber string // NoCertificado del CSD con que se selló
	Cadena            string // Cadena original firmada
	SealedXML         string
	Status            string
	UUID              string // Folio fiscal asignado por el PAC
	StampedXML        string
	StampError        string
	StampedAt         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Stampable indica si puede enviarse al PAC.
func (c *SealedCFDI) Stampable() bool {
	return c.Status == CFDIStatusSealed || c.Status == CFDIStatusStampError
}

// CurrentXML devuelve el XML timbrado si existe; si no, el sellado.
func (c *SealedCFDI) CurrentXML() string {
	if c.StampedXML != "" {
		return c.StampedXML
	}
	return c.SealedXML
}
