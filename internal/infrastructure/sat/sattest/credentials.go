// Package sattest genera credenciales de prueba (CSD autofirmado y llave) para
// los tests de sellado. No usar fuera de tests.
package sattest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/youmark/pkcs8"
)

// Número de certificado con la convención SAT (20 dígitos ASCII en el serial).
const (
	CertificateNumber = "30001000000500003416"
	KeyPassword       = "12345678a"
	IssuerRFC         = "EKU9003173C9"
)

// Credentials par CSD de prueba.
type Credentials struct {
	Key         *rsa.PrivateKey
	CertDER     []byte
	KeyDER      []byte // PKCS#8 cifrado con KeyPassword (como el .key del SAT)
	PlainKeyDER []byte // PKCS#8 sin cifrar
	Password    string
}

var (
	once    sync.Once
	shared  *Credentials
	initErr error
)

// NewCredentials devuelve credenciales compartidas por todo el proceso de test
// (generar llaves RSA es costoso).
func NewCredentials(t testing.TB) *Credentials {
	t.Helper()
	once.Do(func() {
		shared, initErr = generate(new(big.Int).SetBytes([]byte(CertificateNumber)))
	})
	if initErr != nil {
		t.Fatalf("sattest: generar credenciales: %v", initErr)
	}
	return shared
}

// NewCredentialsWithSerial genera credenciales nuevas con el serial indicado.
func NewCredentialsWithSerial(t testing.TB, serial *big.Int) *Credentials {
	t.Helper()
	c, err := generate(serial)
	if err != nil {
		t.Fatalf("sattest: generar credenciales: %v", err)
	}
	return c
}

func generate(serial *big.Int) (*Credentials, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   "ESCUELA KEMPER URGATE SA DE CV",
			Organization: []string{"ESCUELA KEMPER URGATE SA DE CV"},
			SerialNumber: IssuerRFC,
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageContentCommitment,
		BasicConstraintsValid: true,
	}
	certDER, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}
	plain, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, err
	}
	encrypted, err := pkcs8.ConvertPrivateKeyToPKCS8(key, []byte(KeyPassword))
	if err != nil {
		return nil, err
	}
	return &Credentials{
		Key:         key,
		CertDER:     certDER,
		KeyDER:      encrypted,
		PlainKeyDER: plain,
		Password:    KeyPassword,
	}, nil
}

// EncryptedKey copia del .key cifrado; KeyMaterial.Destroy borra el slice que recibe.
func (c *Credentials) EncryptedKey() []byte { return append([]byte(nil), c.KeyDER...) }

// PlainKey copia del PKCS#8 sin cifrar.
func (c *Credentials) PlainKey() []byte { return append([]byte(nil), c.PlainKeyDER...) }
