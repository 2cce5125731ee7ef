package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// JSON encodes metadata as compact JSON. Decoding is strict: unknown fields
// and trailing values are errors, so a block written by a different format
// revision is reported instead of silently dropping state.
type JSON struct{}

// Name returns "json".
func (JSON) Name() string { return "json" }

// Marshal encodes v.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes exactly one JSON value from data into v.
func (JSON) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("codec: trailing data after json value")
	}
	return nil
}

// Default is the codec used for newly created stores.
var Default Codec = JSON{}
