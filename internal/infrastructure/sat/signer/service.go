// Firma de la cadena original con el CSD: RSA PKCS#1 v1.5 + SHA-256 (Anexo 20).

package signer

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"math/big"

	"github.com/jhoicas/cfdi-sellador/internal/domain"
	pkgsat "github.com/jhoicas/cfdi-sellador/pkg/sat"
)

// Service genera el sello digital del comprobante.
type Service struct {
	random io.Reader
}

// NewService crea el servicio de firma.
func NewService() *Service {
	return &Service{random: rand.Reader}
}

// Sign implementa pkg/sat.Signer. La llave se descifra solo durante la llamada y
// tanto el material recibido como la llave descifrada se borran al salir.
func (s *Service) Sign(cadena string, km *pkgsat.KeyMaterial) (string, error) {
	defer km.Destroy()
	if cadena == "" {
		return "", fmt.Errorf("%w: cadena original vacía", domain.ErrSigning)
	}
	key, err := LoadPrivateKey(km)
	if err != nil {
		return "", err
	}
	defer scrub(key)

	digest := sha256.Sum256([]byte(cadena))
	sig, err := rsa.SignPKCS1v15(s.random, key, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSigning, err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify comprueba un sello contra la llave pública del certificado.
func Verify(cadena, signatureB64 string, pub *rsa.PublicKey) error {
	if pub == nil {
		return fmt.Errorf("%w: llave pública nula", domain.ErrSigning)
	}
	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return fmt.Errorf("%w: sello no es base64: %v", domain.ErrSigning, err)
	}
	digest := sha256.Sum256([]byte(cadena))
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig); err != nil {
		return fmt.Errorf("%w: el sello no corresponde a la cadena: %v", domain.ErrSigning, err)
	}
	return nil
}

// scrub pone en cero los componentes privados. Go no garantiza que no queden
// copias internas (p. ej. valores precalculados), es un borrado de mejor esfuerzo.
func scrub(key *rsa.PrivateKey) {
	zeroInt(key.D)
	for _, p := range key.Primes {
		zeroInt(p)
	}
	zeroInt(key.Precomputed.Dp)
	zeroInt(key.Precomputed.Dq)
	zeroInt(key.Precomputed.Qinv)
}

func zeroInt(n *big.Int) {
	if n == nil {
		return
	}
	words := n.Bits()
	for i := range words {
		words[i] = 0
	}
	n.SetInt64(0)
}

var _ pkgsat.Signer = (*Service)(nil)
