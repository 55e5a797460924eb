package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// NilSentinel marks a field as "not set at this level".
const NilSentinel = "nil"

// ValueKind tags the shape of a profile field value.
type ValueKind int

const (
	// KindScalar is a single string value.
	KindScalar ValueKind = iota
	// KindExtruderArray is a fixed-length list of strings, one slot per extruder.
	KindExtruderArray
	// KindRaw is any other JSON shape, kept verbatim.
	KindRaw
)

// Value is a profile field value. Slicer profiles store almost everything as
// strings, either bare or as a per-extruder array; anything else is carried
// as raw JSON so it survives a round trip untouched.
type Value struct {
	kind   ValueKind
	scalar string
	slots  []string
	raw    json.RawMessage
}

// Scalar returns a scalar string value.
func Scalar(s string) Value {
	return Value{kind: KindScalar, scalar: s}
}

// ExtruderArray returns a per-extruder array value.
func ExtruderArray(slots ...string) Value {
	cp := make([]string, len(slots))
	copy(cp, slots)
	return Value{kind: KindExtruderArray, slots: cp}
}

// RawValue wraps arbitrary JSON that is neither a string nor a string array.
func RawValue(raw []byte) Value {
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return Value{kind: KindRaw, raw: cp}
}

// decodeValue classifies raw JSON into a Value.
func decodeValue(raw []byte) Value {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return RawValue(raw)
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return Scalar(s)
		}
	case '[':
		var slots []string
		if err := json.Unmarshal(trimmed, &slots); err == nil {
			return ExtruderArray(slots...)
		}
	}
	return RawValue(raw)
}

func (v Value) Kind() ValueKind { return v.kind }

// String returns the scalar, or the first extruder slot for arrays.
func (v Value) String() string {
	switch v.kind {
	case KindScalar:
		return v.scalar
	case KindExtruderArray:
		if len(v.slots) == 0 {
			return ""
		}
		return v.slots[0]
	default:
		return string(v.raw)
	}
}

// Slots returns a copy of the extruder slots, or nil for non-array values.
func (v Value) Slots() []string {
	if v.kind != KindExtruderArray {
		return nil
	}
	cp := make([]string, len(v.slots))
	copy(cp, v.slots)
	return cp
}

// IsNil reports whether the value is the nil sentinel: the scalar "nil", or
// a non-empty array whose every slot is "nil".
func (v Value) IsNil() bool {
	switch v.kind {
	case KindScalar:
		return v.scalar == NilSentinel
	case KindExtruderArray:
		if len(v.slots) == 0 {
			return false
		}
		for _, s := range v.slots {
			if s != NilSentinel {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Float parses the numeric view of the value. Percent suffixes are dropped.
func (v Value) Float() (float64, bool) {
	if v.kind == KindRaw {
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v.raw)), 64)
		return f, err == nil
	}
	s := strings.TrimSpace(v.String())
	s = strings.TrimSuffix(s, "%")
	if s == "" || s == NilSentinel {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// WithFloat returns a value of the same shape carrying f in every slot.
func (v Value) WithFloat(f float64) Value {
	s := FormatNumber(f)
	if v.kind == KindExtruderArray && len(v.slots) > 0 {
		slots := make([]string, len(v.slots))
		for i := range slots {
			slots[i] = s
		}
		return ExtruderArray(slots...)
	}
	return Scalar(s)
}

// Equal reports whether two values have the same shape and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindScalar:
		return v.scalar == o.scalar
	case KindExtruderArray:
		if len(v.slots) != len(o.slots) {
			return false
		}
		for i := range v.slots {
			if v.slots[i] != o.slots[i] {
				return false
			}
		}
		return true
	default:
		return bytes.Equal(v.raw, o.raw)
	}
}

// FormatNumber renders f the way slicer profiles store numbers: no
// exponent, at most three decimals, no trailing zeros.
func FormatNumber(f float64) string {
	r := math.Round(f*1000) / 1000
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
