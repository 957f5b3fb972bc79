package cadena

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jhoicas/cfdi-sellador/internal/domain"
)

//go:embed templates/*.yaml
var embedded embed.FS

// Registry plantillas por versión de comprobante. Las plantillas no se modifican
// tras registrarse; el registro admite lecturas concurrentes.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewRegistry crea un registro vacío.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]Template)}
}

// DefaultRegistry registro con las plantillas incluidas en el binario.
func DefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	entries, err := embedded.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("cadena: leer plantillas embebidas: %w", err)
	}
	for _, e := range entries {
		data, err := embedded.ReadFile("templates/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("cadena: %s: %w", e.Name(), err)
		}
		t, err := ParseTemplate(data)
		if err != nil {
			return nil, fmt.Errorf("cadena: %s: %w", e.Name(), err)
		}
		r.Register(t)
	}
	return r, nil
}

// Register agrega o reemplaza la plantilla de su versión.
func (r *Registry) Register(t Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.Version()] = t
}

// Lookup devuelve la plantilla de la versión indicada.
func (r *Registry) Lookup(version string) (Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[version]
	if !ok {
		return nil, fmt.Errorf("%w: sin plantilla para la versión %q", domain.ErrTransform, version)
	}
	return t, nil
}

// Versions versiones registradas, ordenadas.
func (r *Registry) Versions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.templates))
	for v := range r.templates {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// LoadDir carga (y sobrescribe) las plantillas *.yaml / *.yml de un directorio.
// Devuelve cuántas se cargaron. Una plantilla inválida aborta la carga completa.
func (r *Registry) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("cadena: leer %s: %w", dir, err)
	}
	var parsed []Template
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("cadena: %s: %w", path, err)
		}
		t, err := ParseTemplate(data)
		if err != nil {
			return 0, fmt.Errorf("cadena: %s: %w", path, err)
		}
		parsed = append(parsed, t)
	}
	for _, t := range parsed {
		r.Register(t)
	}
	return len(parsed), nil
}
