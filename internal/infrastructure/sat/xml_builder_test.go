package sat_test

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-sellador/internal/domain"
	"github.com/jhoicas/cfdi-sellador/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/sat"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/sat/sattest"
	pkgsat "github.com/jhoicas/cfdi-sellador/pkg/sat"
)

const expectedSnapshot = `<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/4" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xsi:schemaLocation="http://www.sat.gob.mx/cfd/4 http://www.sat.gob.mx/sitio_internet/cfd/4/cfdv40.xsd" Version="4.0" Serie="A" Folio="1" Fecha="2024-01-15T10:30:00" FormaPago="01" NoCertificado="30001000000500003416" SubTotal="1000.00" Moneda="MXN" Total="1160.00" TipoDeComprobante="I" Exportacion="01" MetodoPago="PUE" LugarExpedicion="42501">` +
	`<cfdi:Emisor Rfc="EKU9003173C9" Nombre="ESCUELA KEMPER URGATE" RegimenFiscal="601"/>` +
	`<cfdi:Receptor Rfc="JUFA7608212V6" Nombre="ADRIANA JUAREZ FERNANDEZ" DomicilioFiscalReceptor="01160" RegimenFiscalReceptor="605" UsoCFDI="G03"/>` +
	`<cfdi:Conceptos><cfdi:Concepto ClaveProdServ="01010101" Cantidad="1" ClaveUnidad="H87" Descripcion="Producto de prueba" ValorUnitario="1000.00" Importe="1000.00" ObjetoImp="02">` +
	`<cfdi:Impuestos><cfdi:Traslados><cfdi:Traslado Base="1000.00" Impuesto="002" TipoFactor="Tasa" TasaOCuota="0.160000" Importe="160.00"/></cfdi:Traslados></cfdi:Impuestos>` +
	`</cfdi:Concepto></cfdi:Conceptos>` +
	`<cfdi:Impuestos TotalImpuestosTrasladados="160.00"><cfdi:Traslados><cfdi:Traslado Base="1000.00" Impuesto="002" TipoFactor="Tasa" TasaOCuota="0.160000" Importe="160.00"/></cfdi:Traslados></cfdi:Impuestos>` +
	`</cfdi:Comprobante>`

func documentWithCertificate(t *testing.T) *cfdi.Document {
	doc := sattest.NewDocument(t)
	require.NoError(t, doc.SetCertificateNumber(sattest.CertificateNumber))
	return doc
}

func TestBuild_SalidaCanonica(t *testing.T) {
	out, err := sat.NewXMLBuilderService().Build(documentWithCertificate(t))
	require.NoError(t, err)
	assert.Equal(t, expectedSnapshot, string(out))
}

func TestBuild_Determinista(t *testing.T) {
	b := sat.NewXMLBuilderService()
	first, err := b.Build(documentWithCertificate(t))
	require.NoError(t, err)
	second, err := b.Build(documentWithCertificate(t))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuild_CongelaYDevuelveSnapshot(t *testing.T) {
	doc := documentWithCertificate(t)
	b := sat.NewXMLBuilderService()

	first, err := b.Build(doc)
	require.NoError(t, err)
	assert.Equal(t, cfdi.StateSerialized, doc.State())

	// Los campos de cabecera ya no influyen: el snapshot es la fuente de verdad.
	doc.Total = "9999.99"
	second, err := b.Build(doc)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.ErrorIs(t, doc.AddLineItem(cfdi.LineItem{}), domain.ErrDocumentFrozen)
}

func TestBuild_SinReceptor(t *testing.T) {
	doc := cfdi.NewDocument()
	require.NoError(t, doc.SetIssuer(sattest.Issuer()))

	_, err := sat.NewXMLBuilderService().Build(doc)
	assert.ErrorIs(t, err, domain.ErrIncompleteDocument)
	assert.ErrorIs(t, err, domain.ErrMissingParty)
	assert.Equal(t, cfdi.StatePartiallyBuilt, doc.State())
}

func TestBuild_SinConceptosConceptosVacio(t *testing.T) {
	doc := cfdi.NewDocument()
	require.NoError(t, doc.SetIssuer(sattest.Issuer()))
	require.NoError(t, doc.SetRecipient(sattest.Recipient()))

	out, err := sat.NewXMLBuilderService().Build(doc)
	require.NoError(t, err)

	root := parseRoot(t, out)
	conceptos := root.FindElement("Conceptos")
	require.NotNil(t, conceptos)
	assert.Empty(t, conceptos.ChildElements())
	assert.Nil(t, root.FindElement("Impuestos"), "sin traslados globales no hay bloque Impuestos")
	assert.Contains(t, string(out), "<cfdi:Conceptos/>")
}

func TestBuild_TotalTalCualLoDaElLlamador(t *testing.T) {
	doc := documentWithCertificate(t)
	doc.Total = "1160.00"

	out, err := sat.NewXMLBuilderService().Build(doc)
	require.NoError(t, err)
	assert.Equal(t, "1160.00", parseRoot(t, out).SelectAttrValue("Total", ""))

	// Un total incongruente no se corrige: es responsabilidad del llamador.
	doc = documentWithCertificate(t)
	doc.Total = "1.00"
	out, err = sat.NewXMLBuilderService().Build(doc)
	require.NoError(t, err)
	assert.Equal(t, "1.00", parseRoot(t, out).SelectAttrValue("Total", ""))
}

func TestBuild_OrdenDeAtributos(t *testing.T) {
	doc := documentWithCertificate(t)
	doc.PaymentTerms = "CONTADO"
	doc.Discount = "0.00"
	doc.ExchangeRate = "1"

	out, err := sat.NewXMLBuilderService().Build(doc)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"xmlns:cfdi", "xmlns:xsi", "xsi:schemaLocation",
		"Version", "Serie", "Folio", "Fecha", "FormaPago", "NoCertificado", "CondicionesDePago",
		"SubTotal", "Descuento", "Moneda", "TipoCambio", "Total", "TipoDeComprobante",
		"Exportacion", "MetodoPago", "LugarExpedicion",
	}, attrNames(parseRoot(t, out)))
}

func TestBuild_TotalImpuestosDecimal(t *testing.T) {
	doc := cfdi.NewDocument()
	require.NoError(t, doc.SetIssuer(sattest.Issuer()))
	require.NoError(t, doc.SetRecipient(sattest.Recipient()))
	for _, amount := range []string{"0.1", "0.2", "16.00"} {
		tax := sattest.IVA16()
		tax.Amount = amount
		require.NoError(t, doc.AddTaxCharge(tax))
	}

	out, err := sat.NewXMLBuilderService().Build(doc)
	require.NoError(t, err)
	impuestos := parseRoot(t, out).FindElement("Impuestos")
	require.NotNil(t, impuestos)
	assert.Equal(t, "16.30", impuestos.SelectAttrValue("TotalImpuestosTrasladados", ""))
	assert.Len(t, impuestos.FindElements("Traslados/Traslado"), 3)
}

func exento(base string) cfdi.TaxCharge {
	return cfdi.TaxCharge{Base: base, Tax: pkgsat.TaxIVA, FactorType: pkgsat.FactorExento}
}

func TestBuild_ExentoGlobal(t *testing.T) {
	t.Run("mixto", func(t *testing.T) {
		doc := documentWithCertificate(t)
		require.NoError(t, doc.AddTaxCharge(exento("50.00")))

		out, err := sat.NewXMLBuilderService().Build(doc)
		require.NoError(t, err)
		impuestos := parseRoot(t, out).FindElement("Impuestos")
		require.NotNil(t, impuestos)
		assert.Equal(t, "160.00", impuestos.SelectAttrValue("TotalImpuestosTrasladados", ""))

		traslados := impuestos.FindElements("Traslados/Traslado")
		require.Len(t, traslados, 2)
		assert.Equal(t, []string{"Base", "Impuesto", "TipoFactor"}, attrNames(traslados[1]))
	})

	t.Run("todo exento", func(t *testing.T) {
		doc := cfdi.NewDocument()
		require.NoError(t, doc.SetIssuer(sattest.Issuer()))
		require.NoError(t, doc.SetRecipient(sattest.Recipient()))
		require.NoError(t, doc.AddTaxCharge(exento("50.00")))
		require.NoError(t, doc.AddTaxCharge(exento("25.00")))

		out, err := sat.NewXMLBuilderService().Build(doc)
		require.NoError(t, err)
		impuestos := parseRoot(t, out).FindElement("Impuestos")
		require.NotNil(t, impuestos)
		assert.Nil(t, impuestos.SelectAttr("TotalImpuestosTrasladados"))
		assert.Len(t, impuestos.FindElements("Traslados/Traslado"), 2)
		assert.Equal(t, cfdi.StateSerialized, doc.State())
	})
}

func TestBuild_ImporteInvalidoNoCongela(t *testing.T) {
	doc := cfdi.NewDocument()
	require.NoError(t, doc.SetIssuer(sattest.Issuer()))
	require.NoError(t, doc.SetRecipient(sattest.Recipient()))
	tax := sattest.IVA16()
	tax.Amount = "N/A"
	require.NoError(t, doc.AddTaxCharge(tax))

	_, err := sat.NewXMLBuilderService().Build(doc)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	_, ok := doc.Snapshot()
	assert.False(t, ok)
}

func TestBuild_Exento(t *testing.T) {
	doc := documentWithCertificate(t)
	require.NoError(t, doc.AddLineItem(cfdi.LineItem{
		ProductCode: "01010101", Quantity: "2", UnitCode: "E48", Description: "Servicio exento",
		UnitValue: "50.00", Amount: "100.00", TaxObject: "02",
		Taxes: []cfdi.TaxCharge{{Base: "100.00", Tax: "002", FactorType: "Exento"}},
	}))

	out, err := sat.NewXMLBuilderService().Build(doc)
	require.NoError(t, err)

	traslados := parseRoot(t, out).FindElements("Conceptos/Concepto/Impuestos/Traslados/Traslado")
	require.Len(t, traslados, 2)
	assert.Equal(t, []string{"Base", "Impuesto", "TipoFactor"}, attrNames(traslados[1]))
}

func TestBuild_Nil(t *testing.T) {
	_, err := sat.NewXMLBuilderService().Build(nil)
	assert.ErrorIs(t, err, domain.ErrIncompleteDocument)
}

func parseRoot(t *testing.T, data []byte) *etree.Element {
	t.Helper()
	x := etree.NewDocument()
	require.NoError(t, x.ReadFromBytes(data))
	require.NotNil(t, x.Root())
	return x.Root()
}

func attrNames(e *etree.Element) []string {
	out := make([]string, 0, len(e.Attr))
	for _, a := range e.Attr {
		out = append(out, a.FullKey())
	}
	return out
}
