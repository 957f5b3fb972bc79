package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-sellador/internal/application/dto"
	"github.com/jhoicas/cfdi-sellador/internal/domain"
	"github.com/jhoicas/cfdi-sellador/internal/domain/cfdi"
	pkgsat "github.com/jhoicas/cfdi-sellador/pkg/sat"
)

// DocumentFromRequest arma el documento a partir del JSON de entrada. Los
// campos vacíos conservan los valores por defecto de cfdi.NewDocument. Un
// receptor ausente no es error aquí: lo detecta la serialización. Los importes
// de cabecera presentes deben ser decimales válidos.
func DocumentFromRequest(in dto.SealCFDIRequest, now time.Time) (*cfdi.Document, error) {
	doc := cfdi.NewDocument()
	doc.Date = now.Truncate(time.Second)
	if in.Date != "" {
		d, err := time.Parse(cfdi.DateLayout, strings.TrimSpace(in.Date))
		if err != nil {
			return nil, fmt.Errorf("%w: fecha %q, formato esperado %s", domain.ErrInvalidInput, in.Date, cfdi.DateLayout)
		}
		doc.Date = d
	}
	setIfNotEmpty(&doc.Version, in.Version)
	setIfNotEmpty(&doc.Currency, in.Currency)
	setIfNotEmpty(&doc.DocumentType, in.DocumentType)
	setIfNotEmpty(&doc.Export, in.Export)
	doc.Series = in.Series
	doc.Folio = in.Folio
	doc.PaymentForm = in.PaymentForm
	doc.PaymentTerms = in.PaymentTerms
	doc.Subtotal = in.Subtotal
	doc.Discount = in.Discount
	doc.ExchangeRate = in.ExchangeRate
	doc.Total = in.Total
	doc.PaymentMethod = in.PaymentMethod
	doc.PlaceOfIssue = in.PlaceOfIssue
	for _, f := range [...]struct{ name, value string }{
		{"subtotal", in.Subtotal},
		{"discount", in.Discount},
		{"exchange_rate", in.ExchangeRate},
		{"total", in.Total},
	} {
		if f.value == "" {
			continue
		}
		if _, err := decimal.NewFromString(f.value); err != nil {
			return nil, fmt.Errorf("%w: %s %q", domain.ErrInvalidAmount, f.name, f.value)
		}
	}

	if err := doc.SetIssuer(toParty(in.Issuer)); err != nil {
		return nil, err
	}
	if in.Recipient != nil {
		if err := doc.SetRecipient(toParty(*in.Recipient)); err != nil {
			return nil, err
		}
	}
	for _, it := range in.Items {
		item := cfdi.LineItem{
			ProductCode:          it.ProductCode,
			IdentificationNumber: it.IdentificationNumber,
			Quantity:             it.Quantity,
			UnitCode:             it.UnitCode,
			Unit:                 it.Unit,
			Description:          it.Description,
			UnitValue:            it.UnitValue,
			Amount:               it.Amount,
			Discount:             it.Discount,
			TaxObject:            it.TaxObject,
		}
		for _, t := range it.Taxes {
			item.Taxes = append(item.Taxes, toTax(t))
		}
		if err := doc.AddLineItem(item); err != nil {
			return nil, err
		}
	}
	for _, t := range in.Taxes {
		if err := doc.AddTaxCharge(toTax(t)); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func toParty(p dto.PartyRequest) cfdi.Party {
	return cfdi.Party{
		Rfc:          pkgsat.NormalizeRFC(p.Rfc),
		Name:         p.Name,
		FiscalRegime: p.FiscalRegime,
		PostalCode:   p.PostalCode,
		CfdiUse:      p.CfdiUse,
	}
}

func toTax(t dto.TaxRequest) cfdi.TaxCharge {
	return cfdi.TaxCharge{
		Base:       t.Base,
		Tax:        t.Tax,
		FactorType: t.FactorType,
		RateOrFee:  t.RateOrFee,
		Amount:     t.Amount,
	}
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
