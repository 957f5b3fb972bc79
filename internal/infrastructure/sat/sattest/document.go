package sattest

import (
	"testing"
	"time"

	"github.com/jhoicas/cfdi-sellador/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-sellador/pkg/sat"
)

// Fecha fija de los documentos de prueba.
var FixedDate = time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)

// Issuer emisor de prueba del SAT.
func Issuer() cfdi.Party {
	return cfdi.Party{Rfc: IssuerRFC, Name: "ESCUELA KEMPER URGATE", FiscalRegime: sat.RegimeGeneralPersonasMorales}
}

// Recipient receptor de prueba del SAT.
func Recipient() cfdi.Party {
	return cfdi.Party{
		Rfc:          "JUFA7608212V6",
		Name:         "ADRIANA JUAREZ FERNANDEZ",
		FiscalRegime: sat.RegimeSueldosSalarios,
		PostalCode:   "01160",
		CfdiUse:      sat.UseGastosGeneral,
	}
}

// IVA16 traslado de IVA al 16% sobre 1000.00.
func IVA16() cfdi.TaxCharge {
	return cfdi.TaxCharge{Base: "1000.00", Tax: sat.TaxIVA, FactorType: sat.FactorTasa, RateOrFee: "0.160000", Amount: "160.00"}
}

// NewDocument comprobante de un concepto de 1000.00 con IVA 16% y Total 1160.00.
func NewDocument(t testing.TB) *cfdi.Document {
	t.Helper()
	doc := cfdi.NewDocument()
	doc.Series = "A"
	doc.Folio = "1"
	doc.Date = FixedDate
	doc.PaymentForm = sat.PaymentFormEfectivo
	doc.PaymentMethod = sat.PaymentMethodUnaExhibicion
	doc.Subtotal = "1000.00"
	doc.Total = "1160.00"
	doc.PlaceOfIssue = "42501"

	must(t, doc.SetIssuer(Issuer()))
	must(t, doc.SetRecipient(Recipient()))
	must(t, doc.AddLineItem(cfdi.LineItem{
		ProductCode: sat.ProductCodeGenerico,
		Quantity:    "1",
		UnitCode:    sat.UnitPieza,
		Description: "Producto de prueba",
		UnitValue:   "1000.00",
		Amount:      "1000.00",
		TaxObject:   sat.TaxObjectSi,
		Taxes:       []cfdi.TaxCharge{IVA16()},
	}))
	must(t, doc.AddTaxCharge(IVA16()))
	return doc
}

func must(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("sattest: %v", err)
	}
}
