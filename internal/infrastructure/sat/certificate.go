// Lectura del certificado de sello digital (.cer, DER) del SAT.

package sat

import (
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/jhoicas/cfdi-sellador/internal/domain"
)

// CertificateNumberLen longitud fija de cfdi:Comprobante/@NoCertificado.
const CertificateNumberLen = 20

// CertificateInfo certificado leído: bytes originales, número y base64. No se modifica tras leerse.
type CertificateInfo struct {
	Raw         []byte
	Number      string // NoCertificado (20 caracteres)
	Base64      string // Certificado
	Certificate *x509.Certificate
}

// ReadCertificate parsea un certificado DER y deriva NoCertificado y su base64.
func ReadCertificate(der []byte) (*CertificateInfo, error) {
	if len(der) == 0 {
		return nil, fmt.Errorf("%w: contenido vacío", domain.ErrCertificateParse)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCertificateParse, err)
	}
	raw := append([]byte(nil), der...)
	return &CertificateInfo{
		Raw:         raw,
		Number:      CertificateNumber(cert.SerialNumber),
		Base64:      base64.StdEncoding.EncodeToString(raw),
		Certificate: cert,
	}, nil
}

// ReadCertificateFile lee y parsea un archivo .cer.
func ReadCertificateFile(path string) (*CertificateInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: leer %s: %v", domain.ErrCertificateParse, path, err)
	}
	info, err := ReadCertificate(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return info, nil
}

// CertificateNumber formatea el número de serie con la convención del SAT.
// Los certificados del SAT codifican el número como 20 dígitos ASCII dentro del
// serial (3330303031... → 30001...); en ese caso se devuelven los dígitos.
// En otro caso: hexadecimal en mayúsculas truncado a los primeros 20 caracteres
// o rellenado con ceros a la izquierda.
func CertificateNumber(serial *big.Int) string {
	if serial == nil {
		return strings.Repeat("0", CertificateNumberLen)
	}
	abs := new(big.Int).Abs(serial)
	if b := abs.Bytes(); len(b) == CertificateNumberLen && allASCIIDigits(b) {
		return string(b)
	}
	h := strings.ToUpper(abs.Text(16))
	if len(h) >= CertificateNumberLen {
		return h[:CertificateNumberLen]
	}
	return strings.Repeat("0", CertificateNumberLen-len(h)) + h
}

// Expired indica si el certificado ya no es vigente en now.
func (c *CertificateInfo) Expired(now time.Time) bool {
	return now.After(c.Certificate.NotAfter) || now.Before(c.Certificate.NotBefore)
}

func allASCIIDigits(b []byte) bool {
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
