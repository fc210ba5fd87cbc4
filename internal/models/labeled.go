package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Check is one labeled boolean.
type Check struct {
	Label string
	Value bool
}

// LabeledChecks is an ordered label->bool mapping. It encodes as a JSON
// object whose keys follow slice order; decoding keeps document order.
type LabeledChecks []Check

// Get returns the value for label.
func (lc LabeledChecks) Get(label string) (value, ok bool) {
	for _, c := range lc {
		if c.Label == label {
			return c.Value, true
		}
	}
	return false, false
}

// Labels returns the labels in order.
func (lc LabeledChecks) Labels() []string {
	out := make([]string, len(lc))
	for i, c := range lc {
		out[i] = c.Label
	}
	return out
}

func (lc LabeledChecks) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range lc {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if c.Value {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (lc *LabeledChecks) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*lc = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("labeled checks: expected object, got %v", tok)
	}

	out := LabeledChecks{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		label, ok := tok.(string)
		if !ok {
			return fmt.Errorf("labeled checks: expected key, got %v", tok)
		}

		var value bool
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("labeled checks: %q: %w", label, err)
		}
		out = append(out, Check{Label: label, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	*lc = out
	return nil
}
