package types

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Field is one value from an open-data record. Socrata sends most values as
// strings but some columns arrive as numbers, booleans, arrays (owner) or
// objects (geometry); all are kept as text. Field tells apart a column that
// was never sent, one sent as null and one sent with a value.
type Field struct {
	val     string
	raw     json.RawMessage // objects, kept verbatim
	present bool
	null    bool
}

// F returns a present Field holding s.
func F(s string) Field { return Field{val: s, present: true} }

// Null returns a Field that was sent as JSON null.
func Null() Field { return Field{present: true, null: true} }

// UnmarshalJSON accepts any JSON value.
func (f *Field) UnmarshalJSON(b []byte) error {
	*f = Field{present: true}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		f.null = true
		return nil
	}
	switch b[0] {
	case '"':
		return json.Unmarshal(b, &f.val)
	case '[':
		var items []Field
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		vals := make([]string, 0, len(items))
		for _, it := range items {
			if s, ok := it.Value(); ok {
				vals = append(vals, s)
			}
		}
		f.val = strings.Join(vals, ", ")
	case '{':
		f.raw = append(json.RawMessage(nil), b...)
		f.val = string(b)
	default:
		// numbers and booleans keep their literal spelling
		f.val = string(b)
	}
	return nil
}

// MarshalJSON writes null for absent or null fields, objects verbatim and
// everything else as a string.
func (f Field) MarshalJSON() ([]byte, error) {
	switch {
	case !f.present || f.null:
		return []byte("null"), nil
	case f.raw != nil:
		return f.raw, nil
	default:
		return json.Marshal(f.val)
	}
}

// Present reports whether the column was sent at all, even as null.
func (f Field) Present() bool { return f.present }

// IsZero reports whether the column was never sent. Profile fields tagged
// omitzero are left out of the JSON document in that case.
func (f Field) IsZero() bool { return !f.present }

// OrNull turns an absent field into an explicit null.
func (f Field) OrNull() Field {
	if !f.present {
		return Null()
	}
	return f
}

// Value returns the text and whether it counts as a value. Absent, null and
// blank fields do not; "0" does.
func (f Field) Value() (string, bool) {
	if !f.present || f.null || strings.TrimSpace(f.val) == "" {
		return "", false
	}
	return f.val, true
}

// Empty is the inverse of the second result of Value.
func (f Field) Empty() bool {
	_, ok := f.Value()
	return !ok
}

// String returns the text, or "" when there is no value.
func (f Field) String() string {
	s, _ := f.Value()
	return s
}

// Or returns the text, or def when there is no value.
func (f Field) Or(def string) string {
	if s, ok := f.Value(); ok {
		return s
	}
	return def
}

// Int parses the value as a whole number. Values such as "1925.0" are
// accepted when they have no fractional part.
func (f Field) Int() (int, bool) {
	s, ok := f.Value()
	if !ok {
		return 0, false
	}
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && v == float64(int(v)) {
		return int(v), true
	}
	return 0, false
}

// Float parses the value as a number.
func (f Field) Float() (float64, bool) {
	s, ok := f.Value()
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}

// Bool reports whether the value is a true flag ("true", "Y", "1").
func (f Field) Bool() bool {
	s, ok := f.Value()
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "y", "yes", "1":
		return true
	}
	return false
}

// First returns the first field that has a value, or an empty Field.
func First(fields ...Field) Field {
	for _, f := range fields {
		if !f.Empty() {
			return f
		}
	}
	return Field{}
}
