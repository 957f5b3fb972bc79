package sat

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-sellador/internal/domain"
	"github.com/jhoicas/cfdi-sellador/internal/domain/cfdi"
	pkgsat "github.com/jhoicas/cfdi-sellador/pkg/sat"
)

// ComprobanteView lectura de un CFDI sellado o timbrado (solo para mostrar).
type ComprobanteView struct {
	Version       string
	Series        string
	Folio         string
	Date          string
	PaymentForm   string
	PaymentMethod string
	Currency      string
	DocumentType  string
	PlaceOfIssue  string
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	TotalRaw      string // Total tal cual aparece en el XML

	TotalTaxesTransferred decimal.Decimal

	Issuer    cfdi.Party
	Recipient cfdi.Party
	Items     []ConceptView
	Seal      cfdi.Seal
	Stamp     *StampView // nil si no está timbrado
}

// ConceptView un cfdi:Concepto.
type ConceptView struct {
	ProductCode string
	Quantity    decimal.Decimal
	UnitCode    string
	Description string
	UnitValue   decimal.Decimal
	Amount      decimal.Decimal
	TaxObject   string
}

// StampView datos del tfd:TimbreFiscalDigital.
type StampView struct {
	UUID                 string
	StampedAt            string
	SATCertificateNumber string
	SATSeal              string
}

// ParseComprobante lee un cfdi:Comprobante. Los importes ausentes quedan en cero.
func ParseComprobante(data []byte) (*ComprobanteView, error) {
	x := etree.NewDocument()
	if err := x.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: parsear XML: %v", domain.ErrMalformedDocument, err)
	}
	root := x.Root()
	if root == nil || root.Tag != "Comprobante" || root.NamespaceURI() != pkgsat.NamespaceCFDI {
		return nil, domain.ErrMalformedDocument
	}

	attr := func(e *etree.Element, key string) string { return e.SelectAttrValue(key, "") }
	amount := func(e *etree.Element, key string) (decimal.Decimal, error) {
		v := attr(e, key)
		if v == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %s=%q", domain.ErrInvalidAmount, key, v)
		}
		return d, nil
	}

	v := &ComprobanteView{
		Version:       attr(root, "Version"),
		Series:        attr(root, "Serie"),
		Folio:         attr(root, "Folio"),
		Date:          attr(root, "Fecha"),
		PaymentForm:   attr(root, "FormaPago"),
		PaymentMethod: attr(root, "MetodoPago"),
		Currency:      attr(root, "Moneda"),
		DocumentType:  attr(root, "TipoDeComprobante"),
		PlaceOfIssue:  attr(root, "LugarExpedicion"),
		TotalRaw:      attr(root, "Total"),
		Seal: cfdi.Seal{
			Signature:         attr(root, "Sello"),
			CertificateNumber: attr(root, "NoCertificado"),
			Certificate:       attr(root, "Certificado"),
		},
	}
	var err error
	if v.Subtotal, err = amount(root, "SubTotal"); err != nil {
		return nil, err
	}
	if v.Discount, err = amount(root, "Descuento"); err != nil {
		return nil, err
	}
	if v.Total, err = amount(root, "Total"); err != nil {
		return nil, err
	}

	for _, e := range root.ChildElements() {
		if e.NamespaceURI() != pkgsat.NamespaceCFDI {
			continue
		}
		switch e.Tag {
		case "Emisor":
			v.Issuer = cfdi.Party{Rfc: attr(e, "Rfc"), Name: attr(e, "Nombre"), FiscalRegime: attr(e, "RegimenFiscal")}
		case "Receptor":
			v.Recipient = cfdi.Party{
				Rfc:          attr(e, "Rfc"),
				Name:         attr(e, "Nombre"),
				FiscalRegime: attr(e, "RegimenFiscalReceptor"),
				PostalCode:   attr(e, "DomicilioFiscalReceptor"),
				CfdiUse:      attr(e, "UsoCFDI"),
			}
		case "Conceptos":
			for _, c := range e.ChildElements() {
				item := ConceptView{
					ProductCode: attr(c, "ClaveProdServ"),
					UnitCode:    attr(c, "ClaveUnidad"),
					Description: attr(c, "Descripcion"),
					TaxObject:   attr(c, "ObjetoImp"),
				}
				if item.Quantity, err = amount(c, "Cantidad"); err != nil {
					return nil, err
				}
				if item.UnitValue, err = amount(c, "ValorUnitario"); err != nil {
					return nil, err
				}
				if item.Amount, err = amount(c, "Importe"); err != nil {
					return nil, err
				}
				v.Items = append(v.Items, item)
			}
		case "Impuestos":
			if v.TotalTaxesTransferred, err = amount(e, "TotalImpuestosTrasladados"); err != nil {
				return nil, err
			}
		case "Complemento":
			for _, c := range e.ChildElements() {
				if c.Tag == "TimbreFiscalDigital" && c.NamespaceURI() == pkgsat.NamespaceTFD {
					v.Stamp = &StampView{
						UUID:                 attr(c, "UUID"),
						StampedAt:            attr(c, "FechaTimbrado"),
						SATCertificateNumber: attr(c, "NoCertificadoSAT"),
						SATSeal:              attr(c, "SelloSAT"),
					}
				}
			}
		}
	}
	return v, nil
}

// Stamped indica si el comprobante trae timbre fiscal.
func (v *ComprobanteView) Stamped() bool {
	return v.Stamp != nil && v.Stamp.UUID != ""
}

// VerificationURL URL del QR de verificación del SAT. Vacía si no está timbrado.
func (v *ComprobanteView) VerificationURL() string {
	if !v.Stamped() {
		return ""
	}
	seal := v.Seal.Signature
	if len(seal) > 8 {
		seal = seal[len(seal)-8:]
	}
	var b strings.Builder
	b.WriteString(pkgsat.VerificationURL)
	b.WriteString("?id=" + url.QueryEscape(v.Stamp.UUID))
	b.WriteString("&re=" + url.QueryEscape(v.Issuer.Rfc))
	b.WriteString("&rr=" + url.QueryEscape(v.Recipient.Rfc))
	b.WriteString("&tt=" + url.QueryEscape(v.TotalRaw))
	b.WriteString("&fe=" + url.QueryEscape(seal))
	return b.String()
}
