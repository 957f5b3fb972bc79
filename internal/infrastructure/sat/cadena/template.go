// Package cadena genera la cadena original del CFDI a partir del XML canónico y
// de una plantilla declarativa por versión (equivalente a la XSLT del SAT).
package cadena

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"gopkg.in/yaml.v3"

	"github.com/jhoicas/cfdi-sellador/internal/domain"
)

// Delimitadores de la cadena original: ||v1|v2|...||
const (
	fieldSeparator = "|"
	closing        = "||"
)

// Template estrategia de transformación para una versión de comprobante.
// Las implementaciones no guardan estado mutable y son seguras para uso concurrente.
type Template interface {
	Version() string
	Render(root *etree.Element) (string, error)
}

// Step un paso de la plantilla: atributo del nodo actual o ruta de elementos hijos.
type Step struct {
	Attr     string `yaml:"attr,omitempty"`
	Required bool   `yaml:"required,omitempty"`
	Path     string `yaml:"path,omitempty"`
	Steps    []Step `yaml:"steps,omitempty"`
}

// RuleTemplate plantilla declarativa cargada desde YAML.
type RuleTemplate struct {
	TemplateVersion string            `yaml:"version"`
	Namespaces      map[string]string `yaml:"namespaces"`
	Root            string            `yaml:"root"`
	Steps           []Step            `yaml:"steps"`
}

// ParseTemplate decodifica y valida una plantilla YAML.
func ParseTemplate(data []byte) (*RuleTemplate, error) {
	var t RuleTemplate
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: plantilla: %v", domain.ErrTransform, err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Version versión de comprobante que atiende la plantilla.
func (t *RuleTemplate) Version() string { return t.TemplateVersion }

func (t *RuleTemplate) validate() error {
	if t.TemplateVersion == "" {
		return fmt.Errorf("%w: plantilla sin version", domain.ErrTransform)
	}
	if t.Root == "" {
		return fmt.Errorf("%w: plantilla %s sin root", domain.ErrTransform, t.TemplateVersion)
	}
	if _, _, err := t.resolve(t.Root); err != nil {
		return err
	}
	return t.validateSteps(t.Steps, t.Root)
}

func (t *RuleTemplate) validateSteps(steps []Step, at string) error {
	for i, s := range steps {
		switch {
		case s.Attr != "" && s.Path != "":
			return fmt.Errorf("%w: %s paso %d: attr y path son excluyentes", domain.ErrTransform, at, i+1)
		case s.Attr != "":
			if len(s.Steps) > 0 {
				return fmt.Errorf("%w: %s paso %d: un atributo no tiene pasos anidados", domain.ErrTransform, at, i+1)
			}
		case s.Path != "":
			for _, name := range strings.Split(s.Path, "/") {
				if _, _, err := t.resolve(name); err != nil {
					return err
				}
			}
			if err := t.validateSteps(s.Steps, s.Path); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %s paso %d vacío", domain.ErrTransform, at, i+1)
		}
	}
	return nil
}

// resolve separa prefijo:local y devuelve el URI del prefijo.
func (t *RuleTemplate) resolve(qname string) (uri, local string, err error) {
	prefix, local, ok := strings.Cut(qname, ":")
	if !ok {
		return "", qname, nil
	}
	uri, found := t.Namespaces[prefix]
	if !found || local == "" {
		return "", "", fmt.Errorf("%w: prefijo desconocido en %q", domain.ErrTransform, qname)
	}
	return uri, local, nil
}

func (t *RuleTemplate) matches(e *etree.Element, qname string) bool {
	uri, local, err := t.resolve(qname)
	if err != nil {
		return false
	}
	return e.Tag == local && e.NamespaceURI() == uri
}

// Render aplica la plantilla a la raíz del comprobante.
func (t *RuleTemplate) Render(root *etree.Element) (string, error) {
	if root == nil {
		return "", fmt.Errorf("%w: documento sin raíz", domain.ErrTransform)
	}
	if !t.matches(root, t.Root) {
		return "", fmt.Errorf("%w: la raíz {%s}%s no corresponde a %s (versión %s)",
			domain.ErrTransform, root.NamespaceURI(), root.Tag, t.Root, t.TemplateVersion)
	}
	var sb strings.Builder
	sb.WriteString(fieldSeparator)
	t.apply(&sb, root, t.Steps)
	sb.WriteString(closing)
	return sb.String(), nil
}

func (t *RuleTemplate) apply(sb *strings.Builder, e *etree.Element, steps []Step) {
	for _, s := range steps {
		if s.Attr != "" {
			a := e.SelectAttr(s.Attr)
			if a == nil && !s.Required {
				continue
			}
			sb.WriteString(fieldSeparator)
			if a != nil {
				sb.WriteString(NormalizeSpace(a.Value))
			}
			continue
		}
		for _, m := range t.selectPath(e, strings.Split(s.Path, "/")) {
			t.apply(sb, m, s.Steps)
		}
	}
}

// selectPath devuelve los descendientes que coinciden con la ruta, en orden de documento.
func (t *RuleTemplate) selectPath(e *etree.Element, names []string) []*etree.Element {
	var out []*etree.Element
	for _, c := range e.ChildElements() {
		if !t.matches(c, names[0]) {
			continue
		}
		if len(names) == 1 {
			out = append(out, c)
			continue
		}
		out = append(out, t.selectPath(c, names[1:])...)
	}
	return out
}

// NormalizeSpace equivale a normalize-space() de XPath: recorta y colapsa
// secuencias de espacio, tabulador, CR y LF a un solo espacio.
func NormalizeSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, isXMLSpace), " ")
}

func isXMLSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

var _ Template = (*RuleTemplate)(nil)
