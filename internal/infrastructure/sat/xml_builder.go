// Package sat implementa la serialización canónica del CFDI 4.0, la lectura del
// certificado de sello digital y la incrustación del sello en el XML.
package sat

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/jhoicas/cfdi-sellador/internal/domain"
	"github.com/jhoicas/cfdi-sellador/internal/domain/cfdi"
	pkgsat "github.com/jhoicas/cfdi-sellador/pkg/sat"
)

// ComprobanteAttrOrder orden de atributos de cfdi:Comprobante declarado en cfdv40.xsd.
// La cadena original depende de este orden; no es alfabético ni de inserción.
var ComprobanteAttrOrder = []string{
	"Version", "Serie", "Folio", "Fecha", "Sello", "FormaPago", "NoCertificado",
	"Certificado", "CondicionesDePago", "SubTotal", "Descuento", "Moneda",
	"TipoCambio", "Total", "TipoDeComprobante", "Exportacion", "MetodoPago",
	"LugarExpedicion", "Confirmacion",
}

// attr atributo a escribir; los opcionales vacíos se omiten.
type attr struct {
	name     string
	value    string
	required bool
}

func req(name, value string) attr { return attr{name: name, value: value, required: true} }
func opt(name, value string) attr { return attr{name: name, value: value} }

// XMLBuilderService serializa un cfdi.Document a su forma canónica (sin sello).
type XMLBuilderService struct{}

// NewXMLBuilderService crea el servicio.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// Build genera el XML canónico del comprobante y lo congela en el documento.
// Si el documento ya fue serializado devuelve el mismo snapshot: el documento
// canónico se genera una sola vez y nunca se vuelve a derivar de los campos.
func (s *XMLBuilderService) Build(doc *cfdi.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: documento nulo", domain.ErrIncompleteDocument)
	}
	if snapshot, ok := doc.Snapshot(); ok {
		return snapshot, nil
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	x := etree.NewDocument()
	root := x.CreateElement(pkgsat.PrefixCFDI + ":Comprobante")
	root.CreateAttr("xmlns:"+pkgsat.PrefixCFDI, pkgsat.NamespaceCFDI)
	root.CreateAttr("xmlns:xsi", pkgsat.NamespaceXSI)
	root.CreateAttr("xsi:schemaLocation", pkgsat.SchemaLocationV40)
	setAttrs(root,
		req("Version", doc.Version),
		opt("Serie", doc.Series),
		opt("Folio", doc.Folio),
		req("Fecha", doc.FormattedDate()),
		opt("FormaPago", doc.PaymentForm),
		opt("NoCertificado", doc.CertificateNumber()),
		opt("CondicionesDePago", doc.PaymentTerms),
		req("SubTotal", doc.Subtotal),
		opt("Descuento", doc.Discount),
		req("Moneda", doc.Currency),
		opt("TipoCambio", doc.ExchangeRate),
		req("Total", doc.Total),
		req("TipoDeComprobante", doc.DocumentType),
		req("Exportacion", doc.Export),
		opt("MetodoPago", doc.PaymentMethod),
		req("LugarExpedicion", doc.PlaceOfIssue),
	)

	issuer, _ := doc.Issuer()
	setAttrs(child(root, "Emisor"),
		req("Rfc", issuer.Rfc),
		req("Nombre", issuer.Name),
		req("RegimenFiscal", issuer.FiscalRegime),
	)

	recipient, _ := doc.Recipient()
	setAttrs(child(root, "Receptor"),
		req("Rfc", recipient.Rfc),
		req("Nombre", recipient.Name),
		req("DomicilioFiscalReceptor", recipient.PostalCode),
		req("RegimenFiscalReceptor", recipient.FiscalRegime),
		req("UsoCFDI", recipient.CfdiUse),
	)

	// cfdi:Conceptos siempre presente, aunque no haya conceptos.
	conceptos := child(root, "Conceptos")
	for _, item := range doc.LineItems() {
		concepto := child(conceptos, "Concepto")
		setAttrs(concepto,
			req("ClaveProdServ", item.ProductCode),
			opt("NoIdentificacion", item.IdentificationNumber),
			req("Cantidad", item.Quantity),
			req("ClaveUnidad", item.UnitCode),
			opt("Unidad", item.Unit),
			req("Descripcion", item.Description),
			req("ValorUnitario", item.UnitValue),
			req("Importe", item.Amount),
			opt("Descuento", item.Discount),
			req("ObjetoImp", item.TaxObject),
		)
		if len(item.Taxes) > 0 {
			writeTraslados(child(child(concepto, "Impuestos"), "Traslados"), item.Taxes)
		}
	}

	if taxes := doc.TaxCharges(); len(taxes) > 0 {
		total, err := doc.TotalTaxesTransferred()
		if err != nil {
			return nil, err
		}
		impuestos := child(root, "Impuestos")
		setAttrs(impuestos, opt("TotalImpuestosTrasladados", total))
		writeTraslados(child(impuestos, "Traslados"), taxes)
	}

	out, err := x.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("sat: serializar comprobante: %w", err)
	}
	if err := doc.MarkSerialized(out); err != nil {
		return nil, err
	}
	return out, nil
}

func writeTraslados(parent *etree.Element, taxes []cfdi.TaxCharge) {
	for _, t := range taxes {
		setAttrs(child(parent, "Traslado"),
			req("Base", t.Base),
			req("Impuesto", t.Tax),
			req("TipoFactor", t.FactorType),
			opt("TasaOCuota", t.RateOrFee),
			opt("Importe", t.Amount),
		)
	}
}

func child(parent *etree.Element, local string) *etree.Element {
	return parent.CreateElement(pkgsat.PrefixCFDI + ":" + local)
}

func setAttrs(e *etree.Element, attrs ...attr) {
	for _, a := range attrs {
		if a.value == "" && !a.required {
			continue
		}
		e.CreateAttr(a.name, a.value)
	}
}
