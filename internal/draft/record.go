package draft

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/allgemeinbildung/abubox/internal/markup"
)

// Record is the saved state of one assignment: two marked-up texts.
type Record struct {
	SlotA string
	SlotB string
}

// IsBlank reports whether neither slot has visible text.
func (r Record) IsBlank() bool {
	return markup.IsBlank(r.SlotA) && markup.IsBlank(r.SlotB)
}

// Normalized blanks out slots that carry only editor residue.
func (r Record) Normalized() Record {
	if markup.IsBlank(r.SlotA) {
		r.SlotA = ""
	}
	if markup.IsBlank(r.SlotB) {
		r.SlotB = ""
	}
	return r
}

// Entry is a record together with its id, as returned by listings.
type Entry struct {
	ID     string
	Key    string
	Record Record
}

// Marshal serializes r as a JSON object keyed by the schema's slot names.
// Markup is stored unescaped. Slots that are not valid UTF-8 are rejected
// with ErrInvalidText instead of being silently repaired.
func (s Schema) Marshal(r Record) (string, error) {
	for _, v := range []string{r.SlotA, r.SlotB} {
		if !utf8.ValidString(v) {
			return "", ErrInvalidText
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]string{
		s.SlotAKey: r.SlotA,
		s.SlotBKey: r.SlotB,
	}); err != nil {
		return "", err
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// Unmarshal parses a stored value. Missing or null slots decode as empty;
// anything that is not an object of strings is an error.
func (s Schema) Unmarshal(value string) (Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(value), &fields); err != nil {
		return Record{}, err
	}
	if fields == nil {
		return Record{}, fmt.Errorf("value is not an object")
	}

	var r Record
	if err := decodeSlot(fields, s.SlotAKey, &r.SlotA); err != nil {
		return Record{}, err
	}
	if err := decodeSlot(fields, s.SlotBKey, &r.SlotB); err != nil {
		return Record{}, err
	}
	return r, nil
}

func decodeSlot(fields map[string]json.RawMessage, key string, dst *string) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	var v *string
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("field %q: %w", key, err)
	}
	if v != nil {
		*dst = *v
	}
	return nil
}
