package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Fields is raw editor input keyed by field name. Absent keys leave the bound value untouched,
// so a partial update only changes what it names.
type Fields map[string]string

// Shape is the JSON type a structured field must decode to.
type Shape string

const (
	ShapeObject Shape = "object"
	ShapeArray  Shape = "array"
	ShapeAny    Shape = "any"
)

// Has reports whether key was submitted.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Get returns the trimmed value of key.
func (f Fields) Get(key string) string {
	return strings.TrimSpace(f[key])
}

// Text binds a trimmed value truncated to max runes.
func (f Fields) Text(key string, dst *string, max int) {
	if !f.Has(key) {
		return
	}
	*dst = Clean(f[key], max)
}

// Int binds an integer; unparsable input keeps the current value.
func (f Fields) Int(key string, dst *int) {
	if !f.Has(key) {
		return
	}
	if parsed, err := strconv.Atoi(f.Get(key)); err == nil {
		*dst = parsed
	}
}

// Bool binds a checkbox-style flag.
func (f Fields) Bool(key string, dst *bool) {
	if !f.Has(key) {
		return
	}
	switch strings.ToLower(f.Get(key)) {
	case "1", "true", "on", "yes":
		*dst = true
	default:
		*dst = false
	}
}

// JSON binds a structured field after checking it parses to shape. The stored text is the
// compacted input, key order preserved. Empty input becomes {} or [] for the fixed shapes.
func (f Fields) JSON(key string, dst *string, shape Shape) error {
	if !f.Has(key) {
		if *dst == "" {
			*dst = emptyJSON(shape)
		}
		return nil
	}
	parsed, err := ParseJSONText(key, f[key], shape)
	if err != nil {
		return err
	}
	*dst = parsed
	return nil
}

// ParseJSONText validates raw against shape and returns its compact form.
func ParseJSONText(field, raw string, shape Shape) (string, error) {
	source := strings.TrimSpace(raw)
	if source == "" {
		return emptyJSON(shape), nil
	}
	var decoded interface{}
	if err := json.Unmarshal([]byte(source), &decoded); err != nil {
		return "", Invalid(field, "invalid JSON ("+field+")")
	}
	switch shape {
	case ShapeObject:
		if _, ok := decoded.(map[string]interface{}); !ok {
			return "", Invalid(field, field+" must be a JSON object")
		}
	case ShapeArray:
		if _, ok := decoded.([]interface{}); !ok {
			return "", Invalid(field, field+" must be a JSON array")
		}
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(source)); err != nil {
		return "", Invalid(field, "invalid JSON ("+field+")")
	}
	return compact.String(), nil
}

func emptyJSON(shape Shape) string {
	switch shape {
	case ShapeObject:
		return "{}"
	case ShapeArray:
		return "[]"
	default:
		return ""
	}
}

// Clean trims value and truncates it to max runes (no limit when max <= 0).
func Clean(value string, max int) string {
	value = strings.TrimSpace(value)
	if max <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) > max {
		return strings.TrimSpace(string(runes[:max]))
	}
	return value
}

// Requirement pairs a field name with its bound value.
type Requirement struct {
	Field string
	Value string
}

// Require returns a validation error naming every empty field, e.g. "title and slug are required".
func Require(reqs ...Requirement) error {
	var missing []string
	for _, req := range reqs {
		if strings.TrimSpace(req.Value) == "" {
			missing = append(missing, req.Field)
		}
	}
	switch len(missing) {
	case 0:
		return nil
	case 1:
		return Invalid(missing[0], missing[0]+" is required")
	}
	names := strings.Join(missing[:len(missing)-1], ", ") + " and " + missing[len(missing)-1]
	return Invalid(missing[0], names+" are required")
}
