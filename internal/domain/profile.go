package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Well-known profile keys.
const (
	KeyName         = "name"
	KeyInherits     = "inherits"
	KeyFilamentType = "filament_type"
)

const indent = "    "

type field struct {
	value Value
	raw   json.RawMessage // source bytes; nil once the field is set in code
}

// Profile is an ordered bag of slicer settings. Field order follows the
// source document and unknown keys are carried verbatim, so a profile that
// is parsed and never mutated encodes back to the exact input bytes.
type Profile struct {
	fields *orderedmap.OrderedMap[string, field]
	source []byte
	dirty  bool
}

// NewProfile returns an empty profile.
func NewProfile() *Profile {
	return &Profile{fields: orderedmap.New[string, field](), dirty: true}
}

// ParseProfile parses a JSON object into a Profile, keeping field order and
// the original bytes.
func ParseProfile(data []byte) (*Profile, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("profile must be a JSON object")
	}

	p := &Profile{fields: orderedmap.New[string, field]()}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading profile key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v in profile", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("reading profile field %q: %w", key, err)
		}
		p.fields.Set(key, field{value: decodeValue(raw), raw: raw})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after profile object")
	}

	p.source = make([]byte, len(data))
	copy(p.source, data)
	return p, nil
}

// Get returns the value stored under key.
func (p *Profile) Get(key string) (Value, bool) {
	f, ok := p.fields.Get(key)
	if !ok {
		return Value{}, false
	}
	return f.value, true
}

// Set stores v under key. Existing keys keep their position; new keys are
// appended.
func (p *Profile) Set(key string, v Value) {
	p.fields.Set(key, field{value: v})
	p.dirty = true
}

// Delete removes key from the profile.
func (p *Profile) Delete(key string) {
	if _, present := p.fields.Delete(key); present {
		p.dirty = true
	}
}

// Keys returns field names in order.
func (p *Profile) Keys() []string {
	keys := make([]string, 0, p.fields.Len())
	for pair := p.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

func (p *Profile) Len() int { return p.fields.Len() }

// Name returns the profile's name field, if any.
func (p *Profile) Name() string { return p.stringField(KeyName) }

// Inherits returns the parent profile name, or "" for a root profile.
func (p *Profile) Inherits() string { return p.stringField(KeyInherits) }

func (p *Profile) stringField(key string) string {
	v, ok := p.Get(key)
	if !ok || v.IsNil() {
		return ""
	}
	return strings.TrimSpace(v.String())
}

// Float returns the numeric view of key.
func (p *Profile) Float(key string) (float64, bool) {
	v, ok := p.Get(key)
	if !ok {
		return 0, false
	}
	return v.Float()
}

// SetFloat writes f into key, keeping the field's shape when it exists.
func (p *Profile) SetFloat(key string, f float64) {
	v, _ := p.Get(key)
	p.Set(key, v.WithFloat(f))
}

// HasNilFields reports whether any field carries the nil sentinel.
func (p *Profile) HasNilFields() bool {
	for pair := p.fields.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.value.IsNil() {
			return true
		}
	}
	return false
}

// Modified reports whether the profile no longer matches its source bytes.
func (p *Profile) Modified() bool { return p.dirty }

// Clone returns an independent copy.
func (p *Profile) Clone() *Profile {
	c := &Profile{fields: orderedmap.New[string, field](), dirty: p.dirty}
	for pair := p.fields.Oldest(); pair != nil; pair = pair.Next() {
		c.fields.Set(pair.Key, pair.Value)
	}
	if p.source != nil {
		c.source = make([]byte, len(p.source))
		copy(c.source, p.source)
	}
	return c
}

// CopyField copies key from src into p, preserving the source encoding of
// the value.
func (p *Profile) CopyField(src *Profile, key string) {
	f, ok := src.fields.Get(key)
	if !ok {
		return
	}
	p.fields.Set(key, f)
	p.dirty = true
}

// Encode serializes the profile. An unmodified parsed profile yields its
// original bytes; otherwise fields are written in order with four-space
// indentation, and fields never set in code reuse their source bytes.
func (p *Profile) Encode() ([]byte, error) {
	if !p.dirty && p.source != nil {
		out := make([]byte, len(p.source))
		copy(out, p.source)
		return out, nil
	}
	if p.fields.Len() == 0 {
		return []byte("{}\n"), nil
	}

	var b bytes.Buffer
	b.WriteString("{\n")
	i := 0
	for pair := p.fields.Oldest(); pair != nil; pair = pair.Next() {
		b.WriteString(indent)
		if err := writeJSONString(&b, pair.Key); err != nil {
			return nil, err
		}
		b.WriteString(": ")
		if err := writeField(&b, pair.Value); err != nil {
			return nil, fmt.Errorf("encoding field %q: %w", pair.Key, err)
		}
		i++
		if i < p.fields.Len() {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("}\n")
	return b.Bytes(), nil
}

// MarshalJSON implements json.Marshaler.
func (p *Profile) MarshalJSON() ([]byte, error) {
	return p.Encode()
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Profile) UnmarshalJSON(data []byte) error {
	parsed, err := ParseProfile(data)
	if err != nil {
		return err
	}
	*p = *parsed
	return nil
}

func writeField(b *bytes.Buffer, f field) error {
	if f.raw != nil {
		b.Write(f.raw)
		return nil
	}
	switch f.value.kind {
	case KindScalar:
		return writeJSONString(b, f.value.scalar)
	case KindExtruderArray:
		if len(f.value.slots) == 0 {
			b.WriteString("[]")
			return nil
		}
		b.WriteString("[\n")
		for i, s := range f.value.slots {
			b.WriteString(indent + indent)
			if err := writeJSONString(b, s); err != nil {
				return err
			}
			if i < len(f.value.slots)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString(indent + "]")
		return nil
	default:
		if len(f.value.raw) == 0 {
			b.WriteString("null")
			return nil
		}
		b.Write(f.value.raw)
		return nil
	}
}

func writeJSONString(b *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	b.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}
