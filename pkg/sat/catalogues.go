// Package sat contiene catálogos y validaciones alineados al Anexo 20
// (CFDI 4.0) del SAT (México).
package sat

// Namespaces y ubicación del esquema CFDI 4.0.
const (
	NamespaceCFDI     = "http://www.sat.gob.mx/cfd/4"
	NamespaceXSI      = "http://www.w3.org/2001/XMLSchema-instance"
	SchemaLocationV40 = "http://www.sat.gob.mx/cfd/4 http://www.sat.gob.mx/sitio_internet/cfd/4/cfdv40.xsd"
	PrefixCFDI        = "cfdi"
	VersionV40        = "4.0"

	NamespaceTFD = "http://www.sat.gob.mx/TimbreFiscalDigital"
	// URL de verificación pública de comprobantes (QR de la representación impresa).
	VerificationURL = "https://verificacfdi.facturaelectronica.sat.gob.mx/default.aspx"
)

// =============================================================================
// c_RegimenFiscal - códigos de uso frecuente
// =============================================================================

const (
	RegimeGeneralPersonasMorales = "601" // General de Ley Personas Morales
	RegimePersonasMoralesNoLucro = "603" // Personas Morales con Fines no Lucrativos
	RegimeSueldosSalarios        = "605" // Sueldos y Salarios e Ingresos Asimilados a Salarios
	RegimeArrendamiento          = "606" // Arrendamiento
	RegimeActividadEmpresarial   = "612" // Personas Físicas con Actividades Empresariales y Profesionales
	RegimeSinObligaciones        = "616" // Sin obligaciones fiscales
	RegimeIncorporacionFiscal    = "621" // Incorporación Fiscal
	RegimeSimplificadoConfianza  = "626" // Régimen Simplificado de Confianza
)

// =============================================================================
// c_UsoCFDI
// =============================================================================

const (
	UseAdquisicionMercancias = "G01" // Adquisición de mercancías
	UseGastosGeneral         = "G03" // Gastos en general
	UseSinEfectosFiscales    = "S01" // Sin efectos fiscales
	UsePagos                 = "CP01"
)

// =============================================================================
// c_FormaPago / c_MetodoPago
// =============================================================================

const (
	PaymentFormEfectivo       = "01"
	PaymentFormTransferencia  = "03"
	PaymentFormTarjetaCredito = "04"
	PaymentFormTarjetaDebito  = "28"
	PaymentFormPorDefinir     = "99"

	PaymentMethodUnaExhibicion = "PUE" // Pago en una sola exhibición
	PaymentMethodParcialidades = "PPD" // Pago en parcialidades o diferido
)

// =============================================================================
// c_TipoDeComprobante / c_Exportacion / c_Moneda
// =============================================================================

const (
	DocumentTypeIngreso  = "I"
	DocumentTypeEgreso   = "E"
	DocumentTypeTraslado = "T"
	DocumentTypeNomina   = "N"
	DocumentTypePago     = "P"

	ExportNoAplica   = "01"
	ExportDefinitiva = "02"
	ExportTemporal   = "03"

	CurrencyMXN = "MXN"
	CurrencyUSD = "USD"
)

// =============================================================================
// c_Impuesto / c_TipoFactor / c_ObjetoImp
// =============================================================================

const (
	TaxISR  = "001"
	TaxIVA  = "002"
	TaxIEPS = "003"

	FactorTasa   = "Tasa"
	FactorCuota  = "Cuota"
	FactorExento = "Exento"

	TaxObjectNo           = "01" // No objeto de impuesto
	TaxObjectSi           = "02" // Sí objeto de impuesto
	TaxObjectSiNoDesglose = "03" // Sí objeto del impuesto y no obligado al desglose
)

// =============================================================================
// c_ClaveUnidad / c_ClaveProdServ - valores de uso común
// =============================================================================

const (
	UnitPieza           = "H87"
	UnitServicio        = "E48"
	UnitActividad       = "ACT"
	UnitKilogramo       = "KGM"
	ProductCodeGenerico = "01010101" // No existe en el catálogo
)
