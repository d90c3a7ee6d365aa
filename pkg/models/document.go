package models

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Document is an ordered key/value mapping used for every record persisted
// by the store. Setting an existing key replaces its value in place, so a
// merge of several sources keeps the first position of a key and the last
// value written to it.
type Document struct {
	keys   []string
	values map[string]any
}

// NewDocument creates an empty document
func NewDocument() *Document {
	return &Document{values: make(map[string]any)}
}

// Set stores value under key. An existing key keeps its position.
func (d *Document) Set(key string, value any) {
	if d.values == nil {
		d.values = make(map[string]any)
	}
	if _, exists := d.values[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Get returns the value stored under key
func (d *Document) Get(key string) (any, bool) {
	if d == nil || d.values == nil {
		return nil, false
	}
	v, ok := d.values[key]
	return v, ok
}

// GetString returns the value under key formatted as a string.
// Missing keys yield "".
func (d *Document) GetString(key string) string {
	v, ok := d.Get(key)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// GetFloat returns the finite numeric value under key. Strings holding a
// number are parsed; NaN, infinities and anything else report false.
func (d *Document) GetFloat(key string) (float64, bool) {
	v, ok := d.Get(key)
	if !ok {
		return 0, false
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// GetBool returns the boolean under key, false when missing or not a bool
func (d *Document) GetBool(key string) bool {
	v, ok := d.Get(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Delete removes key if present
func (d *Document) Delete(key string) {
	if d == nil || d.values == nil {
		return
	}
	if _, exists := d.values[key]; !exists {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Rename moves the value stored under from to to. If to already exists its
// value is replaced.
func (d *Document) Rename(from, to string) {
	v, ok := d.Get(from)
	if !ok || from == to {
		return
	}
	d.Delete(from)
	d.Set(to, v)
}

// Keys returns the keys in insertion order
func (d *Document) Keys() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len returns the number of keys
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Merge copies every pair of each source into d in order; later sources win.
func (d *Document) Merge(sources ...*Document) {
	for _, src := range sources {
		if src == nil {
			continue
		}
		for _, k := range src.keys {
			d.Set(k, src.values[k])
		}
	}
}

// Clone returns a shallow copy of d
func (d *Document) Clone() *Document {
	out := NewDocument()
	out.Merge(d)
	return out
}

// Map returns the pairs as a plain map
func (d *Document) Map() map[string]any {
	out := make(map[string]any, d.Len())
	if d == nil {
		return out
	}
	for _, k := range d.keys {
		out[k] = d.values[k]
	}
	return out
}

// Equal reports whether both documents hold the same pairs, ignoring order
func (d *Document) Equal(other *Document) bool {
	return d.Hash() == other.Hash()
}

// Hash returns the content hash of the document, leaving out the excluded
// keys. The hash is computed over the key-sorted JSON form, so it does not
// depend on insertion order.
func (d *Document) Hash(exclude ...string) string {
	m := d.Map()
	for _, k := range exclude {
		delete(m, k)
	}
	// encoding/json writes map keys sorted
	b, err := json.Marshal(m)
	if err != nil {
		b = []byte(fmt.Sprintf("%v", m))
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// MarshalJSON writes the pairs in insertion order
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if d != nil {
		for i, k := range d.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := json.Marshal(d.values[k])
			if err != nil {
				return nil, fmt.Errorf("marshal %q: %w", k, err)
			}
			buf.Write(vb)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping the key order of the input
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("document must be a JSON object")
	}

	d.keys = nil
	d.values = make(map[string]any)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
		d.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// String renders the document as JSON, for logs
func (d *Document) String() string {
	b, err := d.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(b)
}
