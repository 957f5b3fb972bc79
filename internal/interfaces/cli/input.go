package cli

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readText lee path y lo entrega en UTF-8. Con encoding "auto" un archivo que
// no es UTF-8 válido se interpreta como Windows-1252, el default de Excel y
// de muchos ERPs en México.
func readText(path, encoding string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("leer %s: %w", path, err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "auto":
		if utf8.Valid(raw) {
			return raw, nil
		}
		return decode(raw, charmap.Windows1252)
	case "utf-8", "utf8":
		if !utf8.Valid(raw) {
			return nil, fmt.Errorf("%s no es UTF-8 válido", path)
		}
		return raw, nil
	case "windows-1252", "cp1252":
		return decode(raw, charmap.Windows1252)
	case "iso-8859-1", "latin1":
		return decode(raw, charmap.ISO8859_1)
	}
	return nil, fmt.Errorf("codificación desconocida: %q", encoding)
}

func decode(raw []byte, cm *charmap.Charmap) ([]byte, error) {
	out, _, err := transform.Bytes(cm.NewDecoder(), raw)
	if err != nil {
		return nil, fmt.Errorf("decodificar %s: %w", cm, err)
	}
	return out, nil
}
