// Incrustación del sello (Sello, NoCertificado, Certificado) en cfdi:Comprobante.

package sat

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/jhoicas/cfdi-sellador/internal/domain"
	"github.com/jhoicas/cfdi-sellador/internal/domain/cfdi"
	pkgsat "github.com/jhoicas/cfdi-sellador/pkg/sat"
)

var comprobanteRank = func() map[string]int {
	m := make(map[string]int, len(ComprobanteAttrOrder))
	for i, name := range ComprobanteAttrOrder {
		m[name] = i
	}
	return m
}()

// SealEmbedder inserta el sello en el snapshot canónico.
type SealEmbedder struct{}

// NewSealEmbedder crea el servicio.
func NewSealEmbedder() *SealEmbedder {
	return &SealEmbedder{}
}

// Embed sella el snapshot del documento y lo marca como sellado. Siempre parte
// del snapshot, así que repetirlo con el mismo sello produce el mismo XML.
func (s *SealEmbedder) Embed(doc *cfdi.Document, seal cfdi.Seal) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: documento nulo", domain.ErrNothingToSeal)
	}
	snapshot, ok := doc.Snapshot()
	if !ok {
		return nil, fmt.Errorf("%w: el documento no ha sido serializado", domain.ErrNothingToSeal)
	}
	sealed, err := s.EmbedSnapshot(snapshot, seal)
	if err != nil {
		return nil, err
	}
	if err := doc.MarkSealed(sealed, seal); err != nil {
		return nil, err
	}
	return sealed, nil
}

// EmbedSnapshot fija los tres atributos del sello en sus posiciones del esquema
// sin tocar ningún otro atributo ni elemento.
func (s *SealEmbedder) EmbedSnapshot(snapshot []byte, seal cfdi.Seal) ([]byte, error) {
	if len(snapshot) == 0 {
		return nil, fmt.Errorf("%w: snapshot vacío", domain.ErrNothingToSeal)
	}
	if seal.Signature == "" {
		return nil, fmt.Errorf("%w: sello vacío", domain.ErrNothingToSeal)
	}
	x := etree.NewDocument()
	if err := x.ReadFromBytes(snapshot); err != nil {
		return nil, fmt.Errorf("%w: parsear XML: %v", domain.ErrMalformedDocument, err)
	}
	root := x.Root()
	if root == nil || root.Tag != "Comprobante" || root.NamespaceURI() != pkgsat.NamespaceCFDI {
		return nil, domain.ErrMalformedDocument
	}
	// NoCertificado forma parte de la cadena original: no puede cambiar al sellar.
	if a := root.SelectAttr("NoCertificado"); a != nil && a.Value != seal.CertificateNumber {
		return nil, fmt.Errorf("%w: NoCertificado del sello %q distinto al del documento %q",
			domain.ErrDocumentFrozen, seal.CertificateNumber, a.Value)
	}

	setOrdered(root, "Sello", seal.Signature)
	setOrdered(root, "NoCertificado", seal.CertificateNumber)
	setOrdered(root, "Certificado", seal.Certificate)

	out, err := x.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("sat: serializar comprobante sellado: %w", err)
	}
	return out, nil
}

// setOrdered actualiza el atributo o lo inserta antes del primero que le sigue
// en ComprobanteAttrOrder. Las declaraciones xmlns y xsi:* quedan al inicio.
func setOrdered(e *etree.Element, key, value string) {
	if a := e.SelectAttr(key); a != nil {
		a.Value = value
		return
	}
	e.CreateAttr(key, value)
	last := len(e.Attr) - 1
	created := e.Attr[last]
	pos := insertPosition(e.Attr[:last], key)
	copy(e.Attr[pos+1:], e.Attr[pos:last])
	e.Attr[pos] = created
}

func insertPosition(attrs []etree.Attr, key string) int {
	target := comprobanteRank[key]
	for i, a := range attrs {
		if a.Space != "" {
			continue
		}
		if r, ok := comprobanteRank[a.Key]; ok && r > target {
			return i
		}
	}
	return len(attrs)
}
