// Package artifact persiste el CFDI serializado y sellado en disco.
package artifact

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFileName nombre del archivo que consume el PAC al timbrar.
const DefaultFileName = "cfdi.xml"

var xmlDeclaration = []byte(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")

// FileStore guarda el comprobante en un archivo de nombre fijo. Cada Save
// reemplaza el contenido anterior de forma atómica (archivo temporal + rename),
// así un lector nunca ve un XML a medio escribir.
type FileStore struct {
	dir  string
	name string
}

// NewFileStore crea el almacén. dir vacío = directorio de trabajo; name vacío = cfdi.xml.
func NewFileStore(dir, name string) *FileStore {
	if dir == "" {
		dir = "."
	}
	if name == "" {
		name = DefaultFileName
	}
	return &FileStore{dir: dir, name: name}
}

// Path ruta del archivo.
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, s.name)
}

// Save escribe data con declaración XML y devuelve la ruta.
func (s *FileStore) Save(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("artifact: contenido vacío")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("artifact: crear %s: %w", s.dir, err)
	}
	tmp, err := os.CreateTemp(s.dir, "."+s.name+".*")
	if err != nil {
		return "", fmt.Errorf("artifact: archivo temporal: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op tras el rename

	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("<?xml")) {
		if _, err := tmp.Write(xmlDeclaration); err != nil {
			tmp.Close()
			return "", fmt.Errorf("artifact: escribir: %w", err)
		}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("artifact: escribir: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("artifact: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("artifact: cerrar: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", fmt.Errorf("artifact: permisos: %w", err)
	}
	path := s.Path()
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("artifact: reemplazar %s: %w", path, err)
	}
	return path, nil
}
