// Package pdf implementa la representación impresa de un CFDI 4.0
// (Anexo 20, apartado de representación impresa).
//
// Layout de la página Carta:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Emisor + RFC         │  Serie-Folio + Fecha         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  EMISOR: Régimen / Lugar de expedición                      │
//	│  RECEPTOR: Nombre + RFC + CP + Régimen + Uso CFDI           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Clave | Descripción | P.Unit | Importe        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / IVA trasladado / TOTAL                  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER SAT: UUID + QR + Sellos + Leyenda                    │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-sellador/internal/application/billing"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/sat"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 105, Green: 28, Blue: 50}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa billing.CFDIPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateCFDIPDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateCFDIPDF(_ context.Context, v *sat.ComprobanteView) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("pdf: comprobante nulo")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.Letter).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("CFDI "+folioLabel(v), true).
		WithAuthor(v.Issuer.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(v))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(emisorRow(v))
	m.AddRows(receptorRow(v))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableDetailRows(v.Items)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(v))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(satFooterRows(v)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: emisor + RFC (izq) y serie-folio + fecha (der).
func headerRow(v *sat.ComprobanteView) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(v.Issuer.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("RFC: "+v.Issuer.Rfc, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(documentTypeLabel(v.DocumentType), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(folioLabel(v), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+v.Date, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func emisorRow(v *sat.ComprobanteView) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("DATOS DEL EMISOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Régimen fiscal: %s   |   Lugar de expedición: %s   |   No. certificado: %s",
				nonEmpty(v.Issuer.FiscalRegime, "—"),
				nonEmpty(v.PlaceOfIssue, "—"),
				nonEmpty(v.Seal.CertificateNumber, "—"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func receptorRow(v *sat.ComprobanteView) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("RECEPTOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(v.Recipient.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("RFC: %s   |   C.P.: %s   |   Régimen: %s   |   Uso CFDI: %s",
				v.Recipient.Rfc,
				nonEmpty(v.Recipient.PostalCode, "—"),
				nonEmpty(v.Recipient.FiscalRegime, "—"),
				nonEmpty(v.Recipient.CfdiUse, "—"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Clave", 2, align.Left),
		h("Descripción", 5, align.Left),
		h("Valor unit.", 2, align.Right),
		h("Importe", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

// tableDetailRows: una fila por concepto.
func tableDetailRows(items []sat.ConceptView) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				it.Quantity.String(),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(2).Add(text.New(
				it.ProductCode+" / "+it.UnitCode,
				props.Text{Size: 7, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(5).Add(text.New(
				it.Description,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				formatMoney(it.UnitValue),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(2).Add(text.New(
				formatMoney(it.Amount),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

func totalsRow(v *sat.ComprobanteView) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grand := func(s string, a align.Type, right float64) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: a,
			Color: colorPrimary, Right: right, Top: 12,
		})
	}

	return row.New(20).Add(
		col.New(6).Add(text.New(
			fmt.Sprintf("Forma de pago: %s   Método: %s   Moneda: %s",
				nonEmpty(v.PaymentForm, "—"), nonEmpty(v.PaymentMethod, "—"), nonEmpty(v.Currency, "—")),
			props.Text{Size: 8, Color: colorGray, Top: 1},
		)),
		col.New(3).Add(
			label("Subtotal:"),
			text.New("Impuestos trasladados:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 5}),
			grand("TOTAL:", align.Right, 2),
		),
		col.New(3).Add(
			value(formatMoney(v.Subtotal)),
			text.New(formatMoney(v.TotalTaxesTransferred), props.Text{Size: 9, Align: align.Right, Right: 1, Top: 5}),
			grand(formatMoney(v.Total), align.Right, 1),
		),
	)
}

// satFooterRows: timbre (UUID + QR), sellos partidos y leyenda.
func satFooterRows(v *sat.ComprobanteView) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("INFORMACIÓN FISCAL", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
	}

	if url := v.VerificationURL(); url != "" {
		rows = append(rows, row.New(40).Add(
			col.New(3).Add(code.NewQr(url, props.Rect{
				Percent: 95,
				Center:  true,
			})),
			col.New(9).Add(
				text.New("Folio fiscal (UUID): "+v.Stamp.UUID, props.Text{
					Style: fontstyle.Bold, Size: 9, Top: 4, Left: 3,
				}),
				text.New("Fecha de certificación: "+v.Stamp.StampedAt, props.Text{
					Size: 8, Top: 11, Left: 3, Color: colorGray,
				}),
				text.New("No. certificado SAT: "+v.Stamp.SATCertificateNumber, props.Text{
					Size: 8, Top: 16, Left: 3, Color: colorGray,
				}),
			),
		))
	} else {
		rows = append(rows, row.New(8).Add(col.New(12).Add(
			text.New("Comprobante sellado, pendiente de timbrado por el PAC", props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Center,
				Color: colorPrimary, Top: 2,
			}),
		)))
	}

	rows = append(rows, chunkRows("Sello digital del CFDI:", v.Seal.Signature)...)
	if v.Stamped() {
		rows = append(rows, chunkRows("Sello del SAT:", v.Stamp.SATSeal)...)
	}

	rows = append(rows, row.New(8).Add(col.New(12).Add(
		text.New("Este documento es una representación impresa de un CFDI 4.0.", props.Text{
			Size: 6.5, Color: colorGray, Top: 2,
		}),
	)))
	return rows
}

func chunkRows(title, value string) []core.Row {
	if value == "" {
		return nil
	}
	rows := []core.Row{row.New(5).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 7, Top: 1}),
	))}
	for _, chunk := range splitEvery(value, 110) {
		rows = append(rows, row.New(4).Add(col.New(12).Add(
			text.New(chunk, props.Text{Size: 6, Color: colorGray, Top: 0.5, Left: 2}),
		)))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func folioLabel(v *sat.ComprobanteView) string {
	switch {
	case v.Series != "" && v.Folio != "":
		return v.Series + "-" + v.Folio
	case v.Folio != "":
		return v.Folio
	default:
		return "Sin folio"
	}
}

func documentTypeLabel(t string) string {
	switch t {
	case "I":
		return "COMPROBANTE DE INGRESO"
	case "E":
		return "COMPROBANTE DE EGRESO"
	case "T":
		return "COMPROBANTE DE TRASLADO"
	case "P":
		return "COMPROBANTE DE PAGO"
	default:
		return "COMPROBANTE FISCAL DIGITAL"
	}
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney formato $1,234.56.
func formatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return sign + "$" + string(buf) + "." + frac
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}

var _ billing.CFDIPDFGenerator = (*MarotoPDFGenerator)(nil)
