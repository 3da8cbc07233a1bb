// Package pdfgen assembles engineering reports: it fills the PDF form
// templates, draws the generated specification tables, and merges, stamps
// and watermarks the result.
package pdfgen

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var manifestYAML []byte

var ErrUnknownTemplate = errors.New("unknown template")

// FieldRef is one expected form field. In YAML it is either a bare name or a
// mapping with the field box width in points.
type FieldRef struct {
	Name  string  `yaml:"name"`
	Width float64 `yaml:"width"`
}

func (f *FieldRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		f.Name = node.Value
		return nil
	}
	type plain FieldRef
	return node.Decode((*plain)(f))
}

type FontPolicy struct {
	Unicode              string  `yaml:"unicode"`
	Condensed            string  `yaml:"condensed"`
	CondensedSize        float64 `yaml:"condensedSize"`
	OverflowSize         float64 `yaml:"overflowSize"`
	CondensedWidthFactor float64 `yaml:"condensedWidthFactor"`
}

// Template describes one form template revision in the bucket.
type Template struct {
	Name    string                `yaml:"name"`
	Domain  string                `yaml:"domain"`
	Key     string                `yaml:"key"`
	Version int                   `yaml:"version"`
	Fields  map[string][]FieldRef `yaml:"fields"`
}

type Manifest struct {
	Fonts     FontPolicy `yaml:"fonts"`
	Templates []Template `yaml:"templates"`
}

// LoadManifest parses the embedded template manifest.
func LoadManifest() (*Manifest, error) {
	return ParseManifest(manifestYAML)
}

func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse template manifest: %w", err)
	}

	seen := make(map[string]bool, len(m.Templates))
	for i, t := range m.Templates {
		if t.Name == "" || t.Domain == "" || t.Key == "" {
			return nil, fmt.Errorf("template manifest entry %d: name, domain and key are required", i)
		}
		id := t.Domain + "/" + t.Name
		if seen[id] {
			return nil, fmt.Errorf("template manifest: duplicate template %s", id)
		}
		seen[id] = true
		for logical, refs := range t.Fields {
			for _, ref := range refs {
				if ref.Name == "" {
					return nil, fmt.Errorf("template %s: empty field name for %s", id, logical)
				}
			}
		}
	}

	if m.Fonts.CondensedSize <= 0 {
		m.Fonts.CondensedSize = 10
	}
	if m.Fonts.OverflowSize <= 0 {
		m.Fonts.OverflowSize = 9
	}
	if m.Fonts.CondensedWidthFactor <= 0 {
		m.Fonts.CondensedWidthFactor = 1
	}
	return &m, nil
}

func (m *Manifest) Template(name, domain string) (*Template, error) {
	for i := range m.Templates {
		if m.Templates[i].Name == name && m.Templates[i].Domain == domain {
			return &m.Templates[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrUnknownTemplate, domain, name)
}

// TemplateKey returns the object key of the named template.
func (m *Manifest) TemplateKey(name, domain string) (string, error) {
	t, err := m.Template(name, domain)
	if err != nil {
		return "", err
	}
	return t.Key, nil
}

// FieldWidth returns the box width recorded for a full field name.
func (t *Template) FieldWidth(fullName string) (float64, bool) {
	for _, refs := range t.Fields {
		for _, ref := range refs {
			if ref.Name == fullName && ref.Width > 0 {
				return ref.Width, true
			}
		}
	}
	return 0, false
}
