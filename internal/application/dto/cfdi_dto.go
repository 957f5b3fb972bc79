package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Los importes viajan como string para conservar los decimales exactos que
// quedarán en el XML ("1000.00", "0.160000").

// SealCFDIRequest body para POST /api/cfdi/seal y entrada JSON del CLI.
type SealCFDIRequest struct {
	Version       string            `json:"version,omitempty"` // vacío = 4.0
	Series        string            `json:"series,omitempty"`
	Folio         string            `json:"folio,omitempty"`
	Date          string            `json:"date,omitempty"` // 2006-01-02T15:04:05; vacío = ahora
	PaymentForm   string            `json:"payment_form,omitempty"`
	PaymentTerms  string            `json:"payment_terms,omitempty"`
	Subtotal      string            `json:"subtotal"`
	Discount      string            `json:"discount,omitempty"`
	Currency      string            `json:"currency,omitempty"` // vacío = MXN
	ExchangeRate  string            `json:"exchange_rate,omitempty"`
	Total         string            `json:"total"`
	DocumentType  string            `json:"document_type,omitempty"` // vacío = I
	Export        string            `json:"export,omitempty"`        // vacío = 01
	PaymentMethod string            `json:"payment_method,omitempty"`
	PlaceOfIssue  string            `json:"place_of_issue"`
	Issuer        PartyRequest      `json:"issuer"`
	Recipient     *PartyRequest     `json:"recipient"`
	Items         []LineItemRequest `json:"items"`
	Taxes         []TaxRequest      `json:"taxes,omitempty"` // traslados globales
}

// PartyRequest emisor o receptor.
type PartyRequest struct {
	Rfc          string `json:"rfc"`
	Name         string `json:"name"`
	FiscalRegime string `json:"fiscal_regime"`
	PostalCode   string `json:"postal_code,omitempty"` // DomicilioFiscalReceptor
	CfdiUse      string `json:"cfdi_use,omitempty"`
}

// LineItemRequest un concepto.
type LineItemRequest struct {
	ProductCode          string       `json:"product_code"`
	IdentificationNumber string       `json:"identification_number,omitempty"`
	Quantity             string       `json:"quantity"`
	UnitCode             string       `json:"unit_code"`
	Unit                 string       `json:"unit,omitempty"`
	Description          string       `json:"description"`
	UnitValue            string       `json:"unit_value"`
	Amount               string       `json:"amount"`
	Discount             string       `json:"discount,omitempty"`
	TaxObject            string       `json:"tax_object"`
	Taxes                []TaxRequest `json:"taxes,omitempty"`
}

// TaxRequest un traslado.
type TaxRequest struct {
	Base       string `json:"base"`
	Tax        string `json:"tax"`         // 002 = IVA
	FactorType string `json:"factor_type"` // Tasa, Cuota, Exento
	RateOrFee  string `json:"rate_or_fee,omitempty"`
	Amount     string `json:"amount,omitempty"`
}

// CFDIResponse CFDI persistido en respuestas.
type CFDIResponse struct {
	ID                 string          `json:"id"`
	Series             string          `json:"series,omitempty"`
	Folio              string          `json:"folio,omitempty"`
	IssuerRFC          string          `json:"issuer_rfc"`
	RecipientRFC       string          `json:"recipient_rfc"`
	Total              decimal.Decimal `json:"total"`
	Status             string          `json:"status"`
	CertificateNumber  string          `json:"certificate_number"`
	CertificateExpired bool            `json:"certificate_expired,omitempty"`
	Cadena             string          `json:"cadena_original"`
	Seal               string          `json:"seal"`
	UUID               string          `json:"uuid,omitempty"`
	StampError         string          `json:"stamp_error,omitempty"`
	StampedAt          *time.Time      `json:"stamped_at,omitempty"`
	XML                string          `json:"xml"`
	CreatedAt          time.Time       `json:"created_at"`
}

// CFDIListResponse listado paginado.
type CFDIListResponse struct {
	Items []CFDIResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}
