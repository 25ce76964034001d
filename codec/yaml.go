package codec

import "go.yaml.in/yaml/v3"

// YAML encodes values as YAML documents. Struct fields use their yaml
// tags.
type YAML struct{}

// Marshal encodes the value to YAML.
func (YAML) Marshal(v any) ([]byte, error) { return yaml.Marshal(v) }

// Unmarshal decodes the YAML data into v.
func (YAML) Unmarshal(data []byte, v any) error { return yaml.Unmarshal(data, v) }

// Name returns "yaml".
func (YAML) Name() string { return "yaml" }
