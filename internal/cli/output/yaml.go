package output

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats data as YAML.
type YAMLFormatter struct{}

// Format formats data as YAML.
//
// Raw JSON values are decoded first so that stored documents come out as
// YAML structures rather than quoted JSON text.
func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlValue(data)); err != nil {
		return err
	}
	return enc.Close()
}

func yamlValue(data any) any {
	switch v := data.(type) {
	case json.RawMessage:
		return decodeRaw(v)
	case map[string]json.RawMessage:
		out := make(map[string]any, len(v))
		for k, raw := range v {
			out[k] = decodeRaw(raw)
		}
		return out
	default:
		return data
	}
}

func decodeRaw(raw json.RawMessage) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}
