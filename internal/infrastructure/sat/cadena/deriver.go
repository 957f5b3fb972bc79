package cadena

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/cfdi-sellador/internal/domain"
)

// Deriver obtiene la cadena original: función pura del XML y la plantilla.
type Deriver struct{}

// NewDeriver crea el derivador.
func NewDeriver() *Deriver {
	return &Deriver{}
}

// Derive canonicaliza el XML (C14N), lo parsea y aplica la plantilla.
func (d *Deriver) Derive(markup []byte, tpl Template) (string, error) {
	if tpl == nil {
		return "", fmt.Errorf("%w: plantilla nula", domain.ErrTransform)
	}
	if len(bytes.TrimSpace(markup)) == 0 {
		return "", fmt.Errorf("%w: XML vacío", domain.ErrTransform)
	}
	canonical, err := canonicalize(markup)
	if err != nil {
		return "", fmt.Errorf("%w: canonicalizar: %v", domain.ErrTransform, err)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(canonical); err != nil {
		return "", fmt.Errorf("%w: parsear XML: %v", domain.ErrTransform, err)
	}
	out, err := tpl.Render(doc.Root())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func canonicalize(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(stripDeclaration(data)))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

// stripDeclaration quita <?xml ...?>; la forma canónica no la incluye.
func stripDeclaration(data []byte) []byte {
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if !bytes.HasPrefix(trimmed, []byte("<?xml")) {
		return data
	}
	if end := bytes.Index(trimmed, []byte("?>")); end >= 0 {
		return trimmed[end+2:]
	}
	return data
}
