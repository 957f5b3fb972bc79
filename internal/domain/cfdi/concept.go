package cfdi

// TaxCharge es un impuesto trasladado (cfdi:Traslado). Se usa por concepto y
// en el bloque global de impuestos. Los importes se conservan como texto tal
// cual los entrega el llamador; el núcleo no los recalcula.
type TaxCharge struct {
	Base       string
	Tax        string // c_Impuesto (002 = IVA)
	FactorType string // Tasa, Cuota o Exento
	RateOrFee  string // TasaOCuota, ej. 0.160000
	Amount     string
}

// LineItem es un concepto de la factura.
// Importe == Cantidad × ValorUnitario es responsabilidad del llamador.
type LineItem struct {
	ProductCode          string // c_ClaveProdServ
	IdentificationNumber string // NoIdentificacion (opcional)
	Quantity             string
	UnitCode             string // c_ClaveUnidad
	Unit                 string // Unidad (opcional)
	Description          string
	UnitValue            string
	Amount               string
	Discount             string // Descuento (opcional)
	TaxObject            string // c_ObjetoImp
	Taxes                []TaxCharge
}

func (li LineItem) clone() LineItem {
	li.Taxes = append([]TaxCharge(nil), li.Taxes...)
	return li
}
