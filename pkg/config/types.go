package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// TypeConfig is the declarative definition of one event type, loaded from
// <name>.yaml in the catalog directory. It is read-only after loading; the
// catalog hands the same instance to every caller.
type TypeConfig struct {
	// Name is the event type identifier, taken from the file name.
	Name string `yaml:"-" json:"name"`

	// Unit labels what Amount measures ("time", "pages", "count"). Required.
	Unit string `yaml:"unit" json:"unit"`

	// Value is the base magnitude handed to downstream calculation.
	// Optional; defaults to 1 so multiplicative calc modes stay neutral.
	Value float64 `yaml:"value" json:"value"`

	// Calc names the downstream calculation strategy. Stored verbatim and
	// never interpreted here. Optional; defaults to "linear".
	Calc string `yaml:"calc" json:"calc"`

	// Meta declares the optional metadata fields for this type, in the
	// order they appear in the definition file.
	Meta MetaFields `yaml:"meta" json:"meta,omitempty"`
}

// MetaField declares one optional metadata field on an event type.
type MetaField struct {
	// Key is the field's identifier within the type's meta mapping.
	Key string `yaml:"-" json:"key"`

	// Prompt is the question to ask when collecting this field
	// interactively. Optional; collection itself lives with the caller.
	Prompt string `yaml:"prompt" json:"prompt,omitempty"`

	// Weight is the field's influence on downstream calculation. Required
	// and numeric; this layer stores it without interpreting it.
	Weight float64 `yaml:"weight" json:"weight"`
}

// MetaFields is an ordered list of metadata field declarations. YAML
// mapping order is preserved so that everything downstream (attributive
// serialization in particular) stays deterministic.
type MetaFields []MetaField

// UnmarshalYAML decodes a YAML mapping into an ordered field list. A plain
// map would lose declaration order, so the node is walked directly.
func (m *MetaFields) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("meta must be a mapping, got %s", yamlKind(node.Kind))
	}
	fields := make(MetaFields, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var f MetaField
		if err := node.Content[i+1].Decode(&f); err != nil {
			return fmt.Errorf("meta field %q: %w", node.Content[i].Value, err)
		}
		f.Key = node.Content[i].Value
		fields = append(fields, f)
	}
	*m = fields
	return nil
}

// Keys returns the declared field keys in declaration order.
func (m MetaFields) Keys() []string {
	keys := make([]string, len(m))
	for i, f := range m {
		keys[i] = f.Key
	}
	return keys
}

// Lookup returns the declaration for key, if any.
func (m MetaFields) Lookup(key string) (MetaField, bool) {
	for _, f := range m {
		if f.Key == key {
			return f, true
		}
	}
	return MetaField{}, false
}

// Has reports whether key is declared.
func (m MetaFields) Has(key string) bool {
	_, ok := m.Lookup(key)
	return ok
}

func yamlKind(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
