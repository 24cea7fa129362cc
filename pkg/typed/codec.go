package typed

import (
	"encoding/json"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Codec converts typed data to document content and back.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

type yamlCodec struct{}

func (yamlCodec) Marshal(v any) ([]byte, error) { return yaml.Marshal(v) }
func (yamlCodec) Unmarshal(data []byte, v any) error { return yaml.Unmarshal(data, v) }

// JSON and YAML are the built-in codecs.
var (
	JSON Codec = jsonCodec{}
	YAML Codec = yamlCodec{}
)

// CodecFor picks a codec from the label's extension: YAML for .yaml and .yml,
// JSON otherwise.
func CodecFor(label string) Codec {
	switch strings.ToLower(path.Ext(label)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}
