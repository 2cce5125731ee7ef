package codec

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"
)

// YAML encodes metadata as a YAML document, which keeps metadata blocks
// readable with the same tooling as the configuration files. Decoding
// rejects unknown fields.
type YAML struct{}

// Name returns "yaml".
func (YAML) Name() string { return "yaml" }

// Marshal encodes v.
func (YAML) Marshal(v any) ([]byte, error) { return yaml.Marshal(v) }

// Unmarshal decodes one YAML document from data into v.
func (YAML) Unmarshal(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("codec: empty yaml document")
		}
		return err
	}
	return nil
}
