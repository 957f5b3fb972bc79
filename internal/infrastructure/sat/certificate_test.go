package sat_test

import (
	"encoding/base64"
	"math/big"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-sellador/internal/domain"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/sat"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/sat/sattest"
)

var upperHex20 = regexp.MustCompile(`^[0-9A-F]{20}$`)

func TestReadCertificate_ConvencionSAT(t *testing.T) {
	creds := sattest.NewCredentials(t)

	info, err := sat.ReadCertificate(creds.CertDER)
	require.NoError(t, err)

	assert.Equal(t, sattest.CertificateNumber, info.Number)
	assert.Regexp(t, upperHex20, info.Number)

	decoded, err := base64.StdEncoding.DecodeString(info.Base64)
	require.NoError(t, err)
	assert.Equal(t, creds.CertDER, decoded, "el base64 debe decodificar a los bytes originales")
	assert.False(t, info.Expired(time.Now()))
}

func TestReadCertificate_SerialNoSAT(t *testing.T) {
	creds := sattest.NewCredentialsWithSerial(t, big.NewInt(0xABC))

	info, err := sat.ReadCertificate(creds.CertDER)
	require.NoError(t, err)
	assert.Equal(t, "00000000000000000ABC", info.Number)
	assert.Regexp(t, upperHex20, info.Number)
}

func TestCertificateNumber_Truncado(t *testing.T) {
	serial, ok := new(big.Int).SetString("0123456789abcdef0123456789abcdef", 16)
	require.True(t, ok)
	// Text(16) omite el cero inicial: 123456789abcdef0123456789abcdef
	assert.Equal(t, "123456789ABCDEF01234", sat.CertificateNumber(serial))
}

func TestCertificateNumber_Nil(t *testing.T) {
	assert.Equal(t, "00000000000000000000", sat.CertificateNumber(nil))
}

func TestReadCertificate_Malformado(t *testing.T) {
	_, err := sat.ReadCertificate([]byte("no es un certificado"))
	assert.ErrorIs(t, err, domain.ErrCertificateParse)

	_, err = sat.ReadCertificate(nil)
	assert.ErrorIs(t, err, domain.ErrCertificateParse)
}

func TestReadCertificateFile_NoExiste(t *testing.T) {
	_, err := sat.ReadCertificateFile(t.TempDir() + "/no-existe.cer")
	assert.ErrorIs(t, err, domain.ErrCertificateParse)
}
