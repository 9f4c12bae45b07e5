package envspec

import (
	"bytes"
	"fmt"

	yamlv3 "gopkg.in/yaml.v3"
)

// renderDoc fixes the key order of the rendered manifest.
type renderDoc struct {
	Name         string           `yaml:"name"`
	Channels     []string         `yaml:"channels,omitempty"`
	Dependencies []DependencySpec `yaml:"dependencies"`
}

// MarshalYAML renders a channel package back to its manifest entry form.
func (c ChannelPackage) MarshalYAML() (interface{}, error) {
	if c.Constraint == nil {
		return c.Name, nil
	}
	return c.Name + c.Constraint.String(), nil
}

// MarshalYAML renders a secondary-index group as its single-key mapping.
func (g SecondaryGroup) MarshalYAML() (interface{}, error) {
	return map[string][]SecondaryPackage{GroupMarker: g.Entries}, nil
}

// MarshalYAML renders a versioned secondary package entry.
func (p VersionedPackage) MarshalYAML() (interface{}, error) {
	if p.Constraint == nil {
		return p.Name, nil
	}
	return p.Name + p.Constraint.String(), nil
}

// MarshalYAML renders a source reference back to its locator form.
func (s SourceReference) MarshalYAML() (interface{}, error) {
	return s.Locator(), nil
}

// Render serializes the descriptor back to manifest text. Loading the
// rendered text yields a descriptor equal to the original, order included.
func (d *Descriptor) Render() ([]byte, error) {
	var buf bytes.Buffer
	enc := yamlv3.NewEncoder(&buf)
	enc.SetIndent(2)

	doc := renderDoc{
		Name:         d.Name,
		Channels:     d.Channels,
		Dependencies: d.Dependencies,
	}
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("rendering environment descriptor: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("rendering environment descriptor: %w", err)
	}
	return buf.Bytes(), nil
}
