package sat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-sellador/internal/domain"
	"github.com/jhoicas/cfdi-sellador/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/sat"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/sat/sattest"
)

var testSeal = cfdi.Seal{
	Signature:         "c2VsbG8=",
	CertificateNumber: sattest.CertificateNumber,
	Certificate:       "Y2VydGlmaWNhZG8=",
}

func serializedDocument(t *testing.T) *cfdi.Document {
	t.Helper()
	doc := documentWithCertificate(t)
	_, err := sat.NewXMLBuilderService().Build(doc)
	require.NoError(t, err)
	return doc
}

func TestEmbed_SoloCambianLosTresAtributos(t *testing.T) {
	doc := serializedDocument(t)
	snapshot, _ := doc.Snapshot()

	sealed, err := sat.NewSealEmbedder().Embed(doc, testSeal)
	require.NoError(t, err)

	before := parseRoot(t, snapshot)
	after := parseRoot(t, sealed)

	for _, a := range before.Attr {
		assert.Equal(t, a.Value, after.SelectAttrValue(a.FullKey(), ""), a.FullKey())
	}
	assert.Equal(t, testSeal.Signature, after.SelectAttrValue("Sello", ""))
	assert.Equal(t, testSeal.CertificateNumber, after.SelectAttrValue("NoCertificado", ""))
	assert.Equal(t, testSeal.Certificate, after.SelectAttrValue("Certificado", ""))
	assert.Len(t, after.Attr, len(before.Attr)+2, "NoCertificado ya existía")

	// Los hijos no cambian.
	for _, path := range []string{"Emisor", "Receptor", "Conceptos/Concepto", "Impuestos"} {
		b, a := before.FindElement(path), after.FindElement(path)
		require.NotNil(t, b, path)
		require.NotNil(t, a, path)
		assert.Equal(t, attrNames(b), attrNames(a), path)
	}
}

func TestEmbed_PosicionesDelEsquema(t *testing.T) {
	doc := serializedDocument(t)

	sealed, err := sat.NewSealEmbedder().Embed(doc, testSeal)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"xmlns:cfdi", "xmlns:xsi", "xsi:schemaLocation",
		"Version", "Serie", "Folio", "Fecha", "Sello", "FormaPago", "NoCertificado", "Certificado",
		"SubTotal", "Moneda", "Total", "TipoDeComprobante", "Exportacion", "MetodoPago", "LugarExpedicion",
	}, attrNames(parseRoot(t, sealed)))
}

func TestEmbed_Idempotente(t *testing.T) {
	doc := serializedDocument(t)
	embedder := sat.NewSealEmbedder()

	first, err := embedder.Embed(doc, testSeal)
	require.NoError(t, err)
	second, err := embedder.Embed(doc, testSeal)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, cfdi.StateSealed, doc.State())
	stored, ok := doc.Sealed()
	require.True(t, ok)
	assert.Equal(t, second, stored)
}

func TestEmbed_SinSnapshot(t *testing.T) {
	doc := sattest.NewDocument(t)

	_, err := sat.NewSealEmbedder().Embed(doc, testSeal)
	assert.ErrorIs(t, err, domain.ErrNothingToSeal)
	assert.Equal(t, cfdi.StatePartiallyBuilt, doc.State())

	_, err = sat.NewSealEmbedder().Embed(nil, testSeal)
	assert.ErrorIs(t, err, domain.ErrNothingToSeal)
}

func TestEmbed_SelloVacio(t *testing.T) {
	doc := serializedDocument(t)
	seal := testSeal
	seal.Signature = ""

	_, err := sat.NewSealEmbedder().Embed(doc, seal)
	assert.ErrorIs(t, err, domain.ErrNothingToSeal)
	assert.Equal(t, cfdi.StateSerialized, doc.State())
}

func TestEmbedSnapshot_RaizIncorrecta(t *testing.T) {
	embedder := sat.NewSealEmbedder()

	cases := map[string]string{
		"otro elemento":   `<cfdi:Factura xmlns:cfdi="http://www.sat.gob.mx/cfd/4"/>`,
		"otro namespace":  `<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/3"/>`,
		"sin namespace":   `<Comprobante Version="4.0"/>`,
		"no es XML":       `Comprobante`,
		"XML mal formado": `<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/4"`,
	}
	for name, xml := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := embedder.EmbedSnapshot([]byte(xml), testSeal)
			assert.ErrorIs(t, err, domain.ErrMalformedDocument)
		})
	}
}

func TestEmbedSnapshot_NoCertificadoDistinto(t *testing.T) {
	doc := serializedDocument(t)
	snapshot, _ := doc.Snapshot()
	seal := testSeal
	seal.CertificateNumber = "00001000000000000001"

	_, err := sat.NewSealEmbedder().EmbedSnapshot(snapshot, seal)
	assert.ErrorIs(t, err, domain.ErrDocumentFrozen)
}

func TestEmbedSnapshot_AgregaNoCertificadoSiFalta(t *testing.T) {
	xml := `<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/4" Version="4.0" Fecha="2024-01-15T10:30:00" CondicionesDePago="CONTADO" SubTotal="1.00"/>`

	sealed, err := sat.NewSealEmbedder().EmbedSnapshot([]byte(xml), testSeal)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"xmlns:cfdi", "Version", "Fecha", "Sello", "NoCertificado", "Certificado", "CondicionesDePago", "SubTotal",
	}, attrNames(parseRoot(t, sealed)))
}
