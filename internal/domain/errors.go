package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("estado inválido para la operación")
)

// Errores del timbrado con el PAC.
var (
	ErrPACAuth = errors.New("pac: autenticación rechazada")
	ErrStamp   = errors.New("pac: timbrado rechazado")
)

// Errores del ciclo de sellado del CFDI. Todos son irrecuperables dentro del núcleo:
// se propagan al llamador envueltos con contexto (%w) y nunca se reintentan.
var (
	// Documento sin emisor o receptor al momento de serializar.
	ErrIncompleteDocument = errors.New("cfdi: documento incompleto")
	// Variante de ErrIncompleteDocument reportada por el serializador.
	ErrMissingParty = fmt.Errorf("%w: falta emisor o receptor", ErrIncompleteDocument)
	// Datos obligatorios de emisor/receptor ausentes o RFC con formato inválido.
	ErrInvalidParty = errors.New("cfdi: datos de emisor/receptor inválidos")
	// Importe que no es un decimal válido.
	ErrInvalidAmount = errors.New("cfdi: importe inválido")
	// Mutación sobre un documento ya serializado.
	ErrDocumentFrozen = errors.New("cfdi: el documento ya fue serializado")
	// Re-serialización desde campos vivos de un documento ya sellado.
	ErrAlreadySealed = errors.New("cfdi: el documento ya fue sellado")

	ErrCertificateParse = errors.New("sat: certificado inválido")
	ErrKeyLoad          = errors.New("sat: no se pudo cargar la llave privada")
	ErrTransform        = errors.New("sat: no se pudo generar la cadena original")
	ErrSigning          = errors.New("sat: error al firmar la cadena original")

	// El árbol a sellar no tiene cfdi:Comprobante como raíz.
	ErrMalformedDocument = errors.New("sat: la raíz no es cfdi:Comprobante")
	// Se intentó sellar sin snapshot canónico o sin sello.
	ErrNothingToSeal = errors.New("sat: no hay documento serializado o sello que incrustar")
)
