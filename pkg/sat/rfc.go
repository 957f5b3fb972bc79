package sat

import (
	"fmt"
	"regexp"
	"strings"
)

// RFCs genéricos publicados por el SAT.
const (
	RFCGenericoNacional   = "XAXX010101000" // Público en general
	RFCGenericoExtranjero = "XEXX010101000" // Residente en el extranjero
)

// Patrón del RFC (Anexo 20, tipo t_RFC): 3 letras (moral) o 4 (física), fecha AAMMDD y homoclave.
var rfcPattern = regexp.MustCompile(`^[A-ZÑ&]{3,4}[0-9]{2}(0[1-9]|1[0-2])(0[1-9]|[12][0-9]|3[01])[A-Z0-9]{2}[0-9A]$`)

// ValidateRFC valida el formato del RFC. No consulta la lista de contribuyentes del SAT.
func ValidateRFC(rfc string) error {
	if rfc == "" {
		return fmt.Errorf("sat: RFC vacío")
	}
	if !rfcPattern.MatchString(rfc) {
		return fmt.Errorf("sat: RFC %q no cumple el patrón del SAT", rfc)
	}
	return nil
}

// NormalizeRFC quita espacios y pasa a mayúsculas.
func NormalizeRFC(rfc string) string {
	return strings.ToUpper(strings.TrimSpace(rfc))
}
