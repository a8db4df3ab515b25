package extract

import (
	"encoding/json"
)

// Kind classifies a cell value.
type Kind int

const (
	KindAbsent Kind = iota
	KindText
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	default:
		return "absent"
	}
}

// Value is a single cell: text, number, or absent.
// Absent is distinct from empty text. Numbers keep the literal text the
// service sent, so "1.50" is never rewritten to "1.5".
type Value struct {
	Kind Kind
	Raw  string
}

// Absent is the value of a cell the service sent as null or omitted.
var Absent = Value{}

// Text returns a text value.
func Text(s string) Value {
	return Value{Kind: KindText, Raw: s}
}

// Number returns a numeric value holding its literal JSON text.
func Number(literal string) Value {
	return Value{Kind: KindNumber, Raw: literal}
}

// IsAbsent reports whether the value is null/absent.
func (v Value) IsAbsent() bool {
	return v.Kind == KindAbsent
}

// String returns the display text; absent values are empty.
func (v Value) String() string {
	if v.Kind == KindAbsent {
		return ""
	}
	return v.Raw
}

// MarshalJSON encodes numbers as their literal, text as a JSON string,
// and absent values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return []byte(v.Raw), nil
	case KindText:
		return json.Marshal(v.Raw)
	default:
		return []byte("null"), nil
	}
}
