package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/mensylisir/dockmcp/pkg/util/validation"
)

// argDecoder reads tool arguments field by field, recording JSON type mismatches as
// field errors instead of stopping at the first one. A JSON null counts as absent.
type argDecoder struct {
	raw  map[string]json.RawMessage
	errs *validation.ValidationErrors
}

func newArgDecoder(arguments json.RawMessage) *argDecoder {
	d := &argDecoder{raw: map[string]json.RawMessage{}, errs: &validation.ValidationErrors{}}
	trimmed := bytes.TrimSpace(arguments)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return d
	}
	if err := json.Unmarshal(trimmed, &d.raw); err != nil {
		d.errs.AddError("arguments", "must be a JSON object")
	}
	return d
}

func (d *argDecoder) lookup(name string, required bool) (json.RawMessage, bool) {
	v, ok := d.raw[name]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		if required {
			d.errs.AddError(name, "is required")
		}
		return nil, false
	}
	return v, true
}

func (d *argDecoder) String(name string, required bool) string {
	v, ok := d.lookup(name, required)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		d.errs.AddError(name, fmt.Sprintf("must be a string, got %s", jsonType(v)))
	}
	return s
}

func (d *argDecoder) Bool(name string) bool {
	v, ok := d.lookup(name, false)
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err != nil {
		d.errs.AddError(name, fmt.Sprintf("must be a boolean, got %s", jsonType(v)))
	}
	return b
}

// Int returns nil when the field is absent or not an integer.
func (d *argDecoder) Int(name string) *int {
	v, ok := d.lookup(name, false)
	if !ok {
		return nil
	}
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		d.errs.AddError(name, fmt.Sprintf("must be an integer, got %s", jsonType(v)))
		return nil
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		d.errs.AddError(name, fmt.Sprintf("must be an integer, got %s", string(bytes.TrimSpace(v))))
		return nil
	}
	i := int(f)
	return &i
}

func (d *argDecoder) Strings(name string, required bool) []string {
	v, ok := d.lookup(name, required)
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		d.errs.AddError(name, fmt.Sprintf("must be an array of strings, got %s", jsonType(v)))
		return nil
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			d.errs.AddError(fmt.Sprintf("%s[%d]", name, i), fmt.Sprintf("must be a string, got %s", jsonType(item)))
			continue
		}
		out = append(out, s)
	}
	return out
}

func jsonType(v json.RawMessage) string {
	t := bytes.TrimSpace(v)
	if len(t) == 0 {
		return "nothing"
	}
	switch t[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
