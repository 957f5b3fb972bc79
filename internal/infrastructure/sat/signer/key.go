// Carga de la llave privada del CSD: .key (DER), PEM o .p12 (PKCS#12).

package signer

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/youmark/pkcs8"
	"golang.org/x/crypto/pkcs12"

	"github.com/jhoicas/cfdi-sellador/internal/domain"
	pkgsat "github.com/jhoicas/cfdi-sellador/pkg/sat"
)

// ReadKeyFile lee el archivo de llave y lo envuelve en KeyMaterial.
func ReadKeyFile(path, password string, format pkgsat.KeyFormat) (*pkgsat.KeyMaterial, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: leer %s: %v", domain.ErrKeyLoad, path, err)
	}
	km := pkgsat.NewKeyMaterial(data, password, format)
	for i := range data {
		data[i] = 0
	}
	return km, nil
}

// LoadPrivateKey descifra la llave RSA. No destruye km.
func LoadPrivateKey(km *pkgsat.KeyMaterial) (*rsa.PrivateKey, error) {
	if km == nil || len(km.Data) == 0 {
		return nil, fmt.Errorf("%w: llave vacía", domain.ErrKeyLoad)
	}
	switch km.Format {
	case pkgsat.KeyFormatDER, "":
		return parseDER(km.Data, km.Password)
	case pkgsat.KeyFormatPEM:
		return parsePEM(km.Data, km.Password)
	case pkgsat.KeyFormatP12:
		priv, _, err := pkcs12.Decode(km.Data, string(km.Password))
		if err != nil {
			return nil, fmt.Errorf("%w: decodificar p12: %v", domain.ErrKeyLoad, err)
		}
		return asRSA(priv)
	}
	return nil, fmt.Errorf("%w: formato %q no soportado", domain.ErrKeyLoad, km.Format)
}

// parseDER acepta el .key del SAT (PKCS#8 cifrado) y PKCS#8 / PKCS#1 sin cifrar.
func parseDER(der, password []byte) (*rsa.PrivateKey, error) {
	if len(password) > 0 {
		key, err := pkcs8.ParsePKCS8PrivateKeyRSA(der, password)
		if err != nil {
			return nil, fmt.Errorf("%w: llave cifrada o contraseña incorrecta: %v", domain.ErrKeyLoad, err)
		}
		return key, nil
	}
	if priv, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		return asRSA(priv)
	}
	key, err := x509.ParsePKCS1PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: DER no es PKCS#8 ni PKCS#1 (¿falta la contraseña?): %v", domain.ErrKeyLoad, err)
	}
	return key, nil
}

func parsePEM(data, password []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: PEM sin bloque", domain.ErrKeyLoad)
	}
	switch block.Type {
	case "ENCRYPTED PRIVATE KEY":
		if len(password) == 0 {
			return nil, fmt.Errorf("%w: la llave PEM está cifrada y no hay contraseña", domain.ErrKeyLoad)
		}
		return parseDER(block.Bytes, password)
	case "PRIVATE KEY", "RSA PRIVATE KEY":
		return parseDER(block.Bytes, nil)
	}
	return nil, fmt.Errorf("%w: bloque PEM %q no soportado", domain.ErrKeyLoad, block.Type)
}

func asRSA(priv any) (*rsa.PrivateKey, error) {
	key, ok := priv.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: la llave debe ser RSA, es %T", domain.ErrKeyLoad, priv)
	}
	return key, nil
}
