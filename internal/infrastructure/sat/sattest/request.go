package sattest

import (
	"fmt"
	"strings"

	"github.com/jhoicas/cfdi-sellador/internal/application/dto"
	"github.com/jhoicas/cfdi-sellador/pkg/sat"
)

// SealRequest equivalente JSON de NewDocument.
func SealRequest() dto.SealCFDIRequest {
	iva := dto.TaxRequest{Base: "1000.00", Tax: sat.TaxIVA, FactorType: sat.FactorTasa, RateOrFee: "0.160000", Amount: "160.00"}
	rec := Recipient()
	return dto.SealCFDIRequest{
		Series:        "A",
		Folio:         "1",
		Date:          FixedDate.Format("2006-01-02T15:04:05"),
		PaymentForm:   sat.PaymentFormEfectivo,
		PaymentMethod: sat.PaymentMethodUnaExhibicion,
		Subtotal:      "1000.00",
		Total:         "1160.00",
		PlaceOfIssue:  "42501",
		Issuer: dto.PartyRequest{
			Rfc:          IssuerRFC,
			Name:         Issuer().Name,
			FiscalRegime: Issuer().FiscalRegime,
		},
		Recipient: &dto.PartyRequest{
			Rfc:          rec.Rfc,
			Name:         rec.Name,
			FiscalRegime: rec.FiscalRegime,
			PostalCode:   rec.PostalCode,
			CfdiUse:      rec.CfdiUse,
		},
		Items: []dto.LineItemRequest{{
			ProductCode: sat.ProductCodeGenerico,
			Quantity:    "1",
			UnitCode:    sat.UnitPieza,
			Description: "Producto de prueba",
			UnitValue:   "1000.00",
			Amount:      "1000.00",
			TaxObject:   sat.TaxObjectSi,
			Taxes:       []dto.TaxRequest{iva},
		}},
		Taxes: []dto.TaxRequest{iva},
	}
}

// Stamp agrega al XML sellado un TimbreFiscalDigital como lo haría el PAC.
func Stamp(sealed []byte, uuid, stampedAt string) []byte {
	tfd := fmt.Sprintf(`<cfdi:Complemento><tfd:TimbreFiscalDigital xmlns:tfd="%s" Version="1.1" UUID="%s" FechaTimbrado="%s" NoCertificadoSAT="30001000000500003456" SelloSAT="c2F0"/></cfdi:Complemento></cfdi:Comprobante>`,
		sat.NamespaceTFD, uuid, stampedAt)
	return []byte(strings.Replace(string(sealed), "</cfdi:Comprobante>", tfd, 1))
}
