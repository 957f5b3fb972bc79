package sat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/cfdi-sellador/pkg/sat"
)

func TestValidateRFC_Validos(t *testing.T) {
	for _, rfc := range []string{
		"EKU9003173C9",  // persona moral de pruebas SAT
		"JUFA7608212V6", // persona física de pruebas SAT
		sat.RFCGenericoNacional,
		sat.RFCGenericoExtranjero,
		"ÑAÑ8601019A1",
	} {
		assert.NoError(t, sat.ValidateRFC(rfc), "RFC %s debe ser válido", rfc)
	}
}

func TestValidateRFC_Invalidos(t *testing.T) {
	for _, rfc := range []string{
		"",
		"EKU900317",     // sin homoclave
		"EKU9013173C9",  // mes 13
		"ekU9003173C9",  // minúsculas
		"EKU9003173C9X", // longitud
		"12349003173C9", // letras iniciales
	} {
		assert.Error(t, sat.ValidateRFC(rfc), "RFC %q debe ser inválido", rfc)
	}
}

func TestNormalizeRFC(t *testing.T) {
	assert.Equal(t, "EKU9003173C9", sat.NormalizeRFC("  eku9003173c9 "))
}
