package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// schemaFile is the on-disk YAML shape for a schema definition.
//
//	attributes:
//	  symbol: string
//	  price: float64
//	  position: record
//	  position.qty: int64
//	  tags: list<string>
//	  counts: map<string,int64>
type schemaFile struct {
	Attributes map[string]string `yaml:"attributes"`
}

// FromYAML parses a schema definition from YAML bytes.
func FromYAML(data []byte) (*Schema, error) {
	var f schemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid schema YAML: %w", err)
	}
	if len(f.Attributes) == 0 {
		return nil, fmt.Errorf("schema YAML declares no attributes")
	}
	attrs := make(map[string]AttrType, len(f.Attributes))
	for path, name := range f.Attributes {
		t, err := ParseType(name)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", path, err)
		}
		attrs[path] = t
	}
	return New(attrs)
}

// LoadYAML reads and parses a schema definition file.
func LoadYAML(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return FromYAML(data)
}
