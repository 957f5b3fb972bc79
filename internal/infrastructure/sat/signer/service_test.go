package signer_test

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-sellador/internal/domain"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/sat/sattest"
	"github.com/jhoicas/cfdi-sellador/internal/infrastructure/sat/signer"
	pkgsat "github.com/jhoicas/cfdi-sellador/pkg/sat"
)

const cadenaPrueba = "||4.0|A|1|2024-01-15T10:30:00|01|30001000000500003416|1000.00|MXN|1160.00|I|01|PUE|42501||"

func TestSign_DosFirmasVerifican(t *testing.T) {
	creds := sattest.NewCredentials(t)
	svc := signer.NewService()

	first, err := svc.Sign(cadenaPrueba, pkgsat.NewKeyMaterial(creds.EncryptedKey(), creds.Password, pkgsat.KeyFormatDER))
	require.NoError(t, err)
	second, err := svc.Sign(cadenaPrueba, pkgsat.NewKeyMaterial(creds.EncryptedKey(), creds.Password, pkgsat.KeyFormatDER))
	require.NoError(t, err)

	assert.NoError(t, signer.Verify(cadenaPrueba, first, &creds.Key.PublicKey))
	assert.NoError(t, signer.Verify(cadenaPrueba, second, &creds.Key.PublicKey))
}

func TestSign_DestruyeMaterial(t *testing.T) {
	creds := sattest.NewCredentials(t)
	km := pkgsat.NewKeyMaterial(creds.EncryptedKey(), creds.Password, pkgsat.KeyFormatDER)
	data := km.Data

	_, err := signer.NewService().Sign(cadenaPrueba, km)
	require.NoError(t, err)

	assert.Nil(t, km.Data)
	assert.Nil(t, km.Password)
	for _, b := range data {
		require.Zero(t, b)
	}
}

func TestSign_DestruyeMaterialEnError(t *testing.T) {
	creds := sattest.NewCredentials(t)
	km := pkgsat.NewKeyMaterial(creds.EncryptedKey(), "incorrecta", pkgsat.KeyFormatDER)

	_, err := signer.NewService().Sign(cadenaPrueba, km)
	require.ErrorIs(t, err, domain.ErrKeyLoad)
	assert.Nil(t, km.Data)
}

func TestSign_CadenaVacia(t *testing.T) {
	creds := sattest.NewCredentials(t)
	_, err := signer.NewService().Sign("", pkgsat.NewKeyMaterial(creds.PlainKey(), "", pkgsat.KeyFormatDER))
	assert.ErrorIs(t, err, domain.ErrSigning)
}

func TestVerify_CadenaAlterada(t *testing.T) {
	creds := sattest.NewCredentials(t)
	sig, err := signer.NewService().Sign(cadenaPrueba, pkgsat.NewKeyMaterial(creds.PlainKey(), "", pkgsat.KeyFormatDER))
	require.NoError(t, err)

	assert.ErrorIs(t, signer.Verify(cadenaPrueba+"x", sig, &creds.Key.PublicKey), domain.ErrSigning)
	assert.ErrorIs(t, signer.Verify(cadenaPrueba, "%%no-base64%%", &creds.Key.PublicKey), domain.ErrSigning)
	assert.ErrorIs(t, signer.Verify(cadenaPrueba, sig, nil), domain.ErrSigning)
}

// =============================================================================
// Formatos de llave
// =============================================================================

func TestLoadPrivateKey_Formatos(t *testing.T) {
	creds := sattest.NewCredentials(t)
	pkcs1 := x509.MarshalPKCS1PrivateKey(creds.Key)

	cases := map[string]*pkgsat.KeyMaterial{
		"der cifrado":   pkgsat.NewKeyMaterial(creds.EncryptedKey(), creds.Password, pkgsat.KeyFormatDER),
		"der pkcs8":     pkgsat.NewKeyMaterial(creds.PlainKey(), "", pkgsat.KeyFormatDER),
		"der pkcs1":     pkgsat.NewKeyMaterial(pkcs1, "", pkgsat.KeyFormatDER),
		"pem pkcs8":     pkgsat.NewKeyMaterial(pemBlock("PRIVATE KEY", creds.PlainKey()), "", pkgsat.KeyFormatPEM),
		"pem pkcs1":     pkgsat.NewKeyMaterial(pemBlock("RSA PRIVATE KEY", pkcs1), "", pkgsat.KeyFormatPEM),
		"pem cifrado":   pkgsat.NewKeyMaterial(pemBlock("ENCRYPTED PRIVATE KEY", creds.EncryptedKey()), creds.Password, pkgsat.KeyFormatPEM),
		"formato vacío": pkgsat.NewKeyMaterial(creds.PlainKey(), "", ""),
	}
	for name, km := range cases {
		t.Run(name, func(t *testing.T) {
			key, err := signer.LoadPrivateKey(km)
			require.NoError(t, err)
			assert.True(t, key.PublicKey.Equal(&creds.Key.PublicKey))
		})
	}
}

func TestLoadPrivateKey_Errores(t *testing.T) {
	creds := sattest.NewCredentials(t)

	cases := map[string]*pkgsat.KeyMaterial{
		"nil":                 nil,
		"vacía":               pkgsat.NewKeyMaterial(nil, "", pkgsat.KeyFormatDER),
		"contraseña errónea":  pkgsat.NewKeyMaterial(creds.EncryptedKey(), "otra", pkgsat.KeyFormatDER),
		"cifrada sin clave":   pkgsat.NewKeyMaterial(creds.EncryptedKey(), "", pkgsat.KeyFormatDER),
		"pem sin bloque":      pkgsat.NewKeyMaterial(creds.PlainKey(), "", pkgsat.KeyFormatPEM),
		"pem cifrado sin pwd": pkgsat.NewKeyMaterial(pemBlock("ENCRYPTED PRIVATE KEY", creds.EncryptedKey()), "", pkgsat.KeyFormatPEM),
		"pem tipo raro":       pkgsat.NewKeyMaterial(pemBlock("CERTIFICATE", creds.CertDER), "", pkgsat.KeyFormatPEM),
		"p12 inválido":        pkgsat.NewKeyMaterial([]byte("no es pkcs12"), "x", pkgsat.KeyFormatP12),
		"formato desconocido": pkgsat.NewKeyMaterial(creds.PlainKey(), "", "jks"),
	}
	for name, km := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := signer.LoadPrivateKey(km)
			assert.ErrorIs(t, err, domain.ErrKeyLoad)
		})
	}
}

func TestReadKeyFile(t *testing.T) {
	creds := sattest.NewCredentials(t)
	path := filepath.Join(t.TempDir(), "csd.key")
	require.NoError(t, os.WriteFile(path, creds.EncryptedKey(), 0o600))

	km, err := signer.ReadKeyFile(path, creds.Password, pkgsat.KeyFormatDER)
	require.NoError(t, err)
	assert.Equal(t, creds.KeyDER, km.Data)

	_, err = signer.ReadKeyFile(filepath.Join(t.TempDir(), "no-existe.key"), "", pkgsat.KeyFormatDER)
	assert.ErrorIs(t, err, domain.ErrKeyLoad)
}

func pemBlock(typ string, der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: typ, Bytes: der})
}
