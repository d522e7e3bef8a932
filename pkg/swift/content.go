package swift

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Field is a single named value in a message body.
type Field struct {
	Name  string
	Value string
}

// Content is the ordered field-name to value mapping of a message body.
// Insertion order is preserved because the sequence check depends on it.
type Content struct {
	fields []Field
}

// NewContent builds Content from fields in the given order. Later duplicates
// overwrite earlier values but keep the first position.
func NewContent(fields ...Field) Content {
	var c Content
	for _, f := range fields {
		c.Set(f.Name, f.Value)
	}
	return c
}

// Set assigns value to name, appending the field if it is new.
func (c *Content) Set(name, value string) {
	for i := range c.fields {
		if c.fields[i].Name == name {
			c.fields[i].Value = value
			return
		}
	}
	c.fields = append(c.fields, Field{Name: name, Value: value})
}

// Get returns the raw value for name.
func (c Content) Get(name string) (string, bool) {
	for _, f := range c.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Value returns the trimmed value for name, or "" when absent.
func (c Content) Value(name string) string {
	v, _ := c.Get(name)
	return strings.TrimSpace(v)
}

// Has reports whether name is present with a non-blank value.
func (c Content) Has(name string) bool {
	return c.Value(name) != ""
}

// Names returns the field names in insertion order.
func (c Content) Names() []string {
	names := make([]string, len(c.fields))
	for i, f := range c.fields {
		names[i] = f.Name
	}
	return names
}

// Fields returns a copy of the fields in insertion order.
func (c Content) Fields() []Field {
	out := make([]Field, len(c.fields))
	copy(out, c.fields)
	return out
}

// Len returns the number of fields.
func (c Content) Len() int {
	return len(c.fields)
}

// Clone returns an independent copy.
func (c Content) Clone() Content {
	return Content{fields: c.Fields()}
}

// Only returns the subset of c whose names are in names, keeping c's order.
func (c Content) Only(names ...string) Content {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	var out Content
	for _, f := range c.fields {
		if keep[f.Name] {
			out.fields = append(out.fields, f)
		}
	}
	return out
}

// Map returns the content as an unordered map.
func (c Content) Map() map[string]string {
	m := make(map[string]string, len(c.fields))
	for _, f := range c.fields {
		m[f.Name] = f.Value
	}
	return m
}

// MarshalJSON encodes the content as a JSON object in field order.
func (c Content) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range c.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving key order. Non-string
// scalar values are kept in their JSON text form.
func (c *Content) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("swift: decode content: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("swift: content must be a JSON object")
	}

	var out Content
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("swift: decode content key: %w", err)
		}
		key, _ := keyTok.(string)

		valTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("swift: decode content value for %q: %w", key, err)
		}
		switch v := valTok.(type) {
		case string:
			out.Set(key, v)
		case json.Number:
			out.Set(key, v.String())
		case bool:
			out.Set(key, fmt.Sprintf("%t", v))
		case nil:
			out.Set(key, "")
		default:
			return fmt.Errorf("swift: content field %q must be a scalar", key)
		}
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("swift: decode content: %w", err)
	}

	*c = out
	return nil
}
