package sat

import (
	"fmt"
	"strings"
)

// KeyFormat formato del archivo de llave privada.
type KeyFormat string

const (
	KeyFormatDER KeyFormat = "der" // .key del SAT (PKCS#8 cifrado) o PKCS#8/PKCS#1 sin cifrar
	KeyFormatPEM KeyFormat = "pem"
	KeyFormatP12 KeyFormat = "p12"
)

// ParseKeyFormat interpreta el formato configurado. Vacío equivale a der.
func ParseKeyFormat(s string) (KeyFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "der", "key":
		return KeyFormatDER, nil
	case "pem":
		return KeyFormatPEM, nil
	case "p12", "pfx":
		return KeyFormatP12, nil
	}
	return "", fmt.Errorf("formato de llave desconocido: %q", s)
}

// KeyMaterial llave privada y contraseña en memoria. Se usa para una sola firma
// y se destruye al terminar.
type KeyMaterial struct {
	Data     []byte
	Password []byte
	Format   KeyFormat
}

// NewKeyMaterial copia data y password para que Destroy no borre los buffers del llamador.
func NewKeyMaterial(data []byte, password string, format KeyFormat) *KeyMaterial {
	return &KeyMaterial{
		Data:     append([]byte(nil), data...),
		Password: []byte(password),
		Format:   format,
	}
}

// Destroy sobrescribe con ceros la llave y la contraseña.
func (k *KeyMaterial) Destroy() {
	if k == nil {
		return
	}
	for i := range k.Data {
		k.Data[i] = 0
	}
	for i := range k.Password {
		k.Password[i] = 0
	}
	k.Data = nil
	k.Password = nil
}

// Signer firma la cadena original con la llave del CSD y devuelve el sello en base64.
// La llave se destruye antes de retornar, haya error o no.
type Signer interface {
	Sign(cadena string, key *KeyMaterial) (string, error)
}
