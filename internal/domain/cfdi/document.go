// Package cfdi modela el Comprobante Fiscal Digital por Internet (CFDI 4.0)
// y su ciclo de vida: construcción → serialización canónica → sellado.
package cfdi

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-sellador/internal/domain"
	"github.com/jhoicas/cfdi-sellador/pkg/sat"
)

// DateLayout formato de cfdi:Comprobante/@Fecha (sin zona ni fracciones de segundo).
const DateLayout = "2006-01-02T15:04:05"

// State estado del documento. Solo avanza, nunca retrocede.
type State int

const (
	StateEmpty State = iota
	StatePartiallyBuilt
	StateSerialized
	StateSealed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "EMPTY"
	case StatePartiallyBuilt:
		return "PARTIALLY_BUILT"
	case StateSerialized:
		return "SERIALIZED"
	case StateSealed:
		return "SEALED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Seal agrupa los tres atributos que se incrustan en la raíz del comprobante.
type Seal struct {
	Signature         string // Sello (base64)
	CertificateNumber string // NoCertificado
	Certificate       string // Certificado (base64 del .cer)
}

// Document es un CFDI en construcción. Cada Document pertenece a un solo
// pipeline; no es seguro para uso concurrente.
//
// Los campos de cabecera son exportados para facilitar su llenado, pero solo
// se leen durante la primera serialización: a partir de ahí el snapshot
// canónico es la única fuente de verdad.
type Document struct {
	Version       string
	Series        string
	Folio         string
	Date          time.Time
	PaymentForm   string // c_FormaPago
	PaymentTerms  string // CondicionesDePago
	Subtotal      string
	Discount      string
	Currency      string
	ExchangeRate  string // TipoCambio
	Total         string
	DocumentType  string // c_TipoDeComprobante
	Export        string // c_Exportacion
	PaymentMethod string // c_MetodoPago
	PlaceOfIssue  string // LugarExpedicion (código postal)

	certificateNumber string
	issuer            *Party
	recipient         *Party
	items             []LineItem
	taxes             []TaxCharge

	state    State
	snapshot []byte
	sealed   []byte
	seal     *Seal
}

// NewDocument crea un documento vacío con los valores por defecto de CFDI 4.0.
func NewDocument() *Document {
	return &Document{
		Version:      sat.VersionV40,
		Date:         time.Now().Truncate(time.Second),
		Currency:     sat.CurrencyMXN,
		DocumentType: sat.DocumentTypeIngreso,
		Export:       sat.ExportNoAplica,
	}
}

// FormattedDate devuelve la fecha con precisión de segundos.
func (d *Document) FormattedDate() string {
	return d.Date.Format(DateLayout)
}

func (d *Document) mutable() error {
	switch d.state {
	case StateSealed:
		return domain.ErrAlreadySealed
	case StateSerialized:
		return domain.ErrDocumentFrozen
	}
	return nil
}

func (d *Document) touch() {
	if d.state == StateEmpty {
		d.state = StatePartiallyBuilt
	}
}

// SetIssuer asigna el emisor.
func (d *Document) SetIssuer(p Party) error {
	if err := d.mutable(); err != nil {
		return err
	}
	if err := p.Validate(RoleIssuer); err != nil {
		return err
	}
	d.issuer = &p
	d.touch()
	return nil
}

// SetRecipient asigna el receptor.
func (d *Document) SetRecipient(p Party) error {
	if err := d.mutable(); err != nil {
		return err
	}
	if err := p.Validate(RoleRecipient); err != nil {
		return err
	}
	d.recipient = &p
	d.touch()
	return nil
}

// AddLineItem agrega un concepto al final; el orden de inserción se conserva.
func (d *Document) AddLineItem(item LineItem) error {
	if err := d.mutable(); err != nil {
		return err
	}
	d.items = append(d.items, item.clone())
	d.touch()
	return nil
}

// AddTaxCharge agrega un traslado al bloque global de impuestos.
func (d *Document) AddTaxCharge(tax TaxCharge) error {
	if err := d.mutable(); err != nil {
		return err
	}
	d.taxes = append(d.taxes, tax)
	d.touch()
	return nil
}

// SetCertificateNumber fija NoCertificado antes de serializar; forma parte de la
// cadena original. Tras serializar solo se acepta el mismo valor.
func (d *Document) SetCertificateNumber(number string) error {
	if d.state >= StateSerialized {
		if number == d.certificateNumber {
			return nil
		}
		return fmt.Errorf("%w: NoCertificado %q distinto al serializado %q", domain.ErrDocumentFrozen, number, d.certificateNumber)
	}
	d.certificateNumber = number
	d.touch()
	return nil
}

// CertificateNumber devuelve el NoCertificado fijado antes de serializar.
func (d *Document) CertificateNumber() string { return d.certificateNumber }

// Issuer devuelve una copia del emisor.
func (d *Document) Issuer() (Party, bool) {
	if d.issuer == nil {
		return Party{}, false
	}
	return *d.issuer, true
}

// Recipient devuelve una copia del receptor.
func (d *Document) Recipient() (Party, bool) {
	if d.recipient == nil {
		return Party{}, false
	}
	return *d.recipient, true
}

// LineItems devuelve una copia de los conceptos en orden de inserción.
func (d *Document) LineItems() []LineItem {
	out := make([]LineItem, len(d.items))
	for i, it := range d.items {
		out[i] = it.clone()
	}
	return out
}

// TaxCharges devuelve una copia de los traslados globales.
func (d *Document) TaxCharges() []TaxCharge {
	return append([]TaxCharge(nil), d.taxes...)
}

// Validate comprueba que el documento pueda serializarse.
func (d *Document) Validate() error {
	if d.issuer == nil || d.recipient == nil {
		return domain.ErrMissingParty
	}
	return nil
}

// TotalTaxesTransferred suma en aritmética decimal los importes de los traslados
// globales. La precisión del resultado es la mayor precisión de los sumandos
// (160.00 + 16.5 = 176.50). Los traslados sin importe (TipoFactor Exento) no
// suman; si ninguno lo tiene devuelve "".
func (d *Document) TotalTaxesTransferred() (string, error) {
	sum := decimal.Zero
	var places int32
	counted := false
	for i, t := range d.taxes {
		if t.Amount == "" {
			continue
		}
		amount, err := decimal.NewFromString(t.Amount)
		if err != nil {
			return "", fmt.Errorf("%w: traslado %d importe %q", domain.ErrInvalidAmount, i+1, t.Amount)
		}
		if exp := -amount.Exponent(); exp > places {
			places = exp
		}
		sum = sum.Add(amount)
		counted = true
	}
	if !counted {
		return "", nil
	}
	return sum.StringFixed(places), nil
}

// State devuelve el estado actual del ciclo de vida.
func (d *Document) State() State { return d.state }

// Snapshot devuelve el documento canónico capturado en la primera serialización.
func (d *Document) Snapshot() ([]byte, bool) {
	if d.snapshot == nil {
		return nil, false
	}
	return append([]byte(nil), d.snapshot...), true
}

// MarkSerialized congela el documento con su serialización canónica.
func (d *Document) MarkSerialized(snapshot []byte) error {
	if err := d.mutable(); err != nil {
		return err
	}
	if len(snapshot) == 0 {
		return fmt.Errorf("%w: snapshot vacío", domain.ErrNothingToSeal)
	}
	d.snapshot = append([]byte(nil), snapshot...)
	d.state = StateSerialized
	return nil
}

// MarkSealed registra el documento sellado. Puede repetirse: cada sellado parte
// del mismo snapshot, por lo que con el mismo sello el resultado es idéntico.
func (d *Document) MarkSealed(sealed []byte, seal Seal) error {
	if d.snapshot == nil {
		return domain.ErrNothingToSeal
	}
	d.sealed = append([]byte(nil), sealed...)
	d.seal = &seal
	d.state = StateSealed
	return nil
}

// Sealed devuelve el documento sellado, si existe.
func (d *Document) Sealed() ([]byte, bool) {
	if d.sealed == nil {
		return nil, false
	}
	return append([]byte(nil), d.sealed...), true
}

// Seal devuelve el sello incrustado, si existe.
func (d *Document) Seal() (Seal, bool) {
	if d.seal == nil {
		return Seal{}, false
	}
	return *d.seal, true
}
