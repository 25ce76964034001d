// Package codec encodes the metadata written next to published models.
//
// Manifests record the codec name so a reader can pick the matching codec
// with ByName.
package codec

import "fmt"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	case "yaml":
		return YAML{}, true
	default:
		return nil, false
	}
}

// MustMarshal panics if v cannot be encoded. A nil codec selects Default.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}

// Default is the codec used for new manifests.
var Default Codec = GoJSON{}
