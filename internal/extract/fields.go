package extract

import (
	"bytes"
	"encoding/json"
)

// Known summary attributes, in display order.
const (
	FieldIllustrationDate    = "illustration_date"
	FieldInsuredName         = "insured_name"
	FieldInitialDeathBenefit = "initial_death_benefit"
	FieldAssumedROR          = "assumed_ror"
	FieldMinimumInitialPmt   = "minimum_initial_pmt"
)

// KnownFields lists the attributes every FieldSet carries.
var KnownFields = []string{
	FieldIllustrationDate,
	FieldInsuredName,
	FieldInitialDeathBenefit,
	FieldAssumedROR,
	FieldMinimumInitialPmt,
}

// Field is one named summary attribute. A nil Value means null.
type Field struct {
	Name  string  `json:"name"`
	Value *string `json:"value"`
}

// FieldSet is the flat set of summary attributes some responses include.
// Every known attribute is present; a missing one is null, never omitted.
type FieldSet struct {
	fields []Field
	index  map[string]int
}

// NewFieldSet returns a set holding every known attribute as null.
func NewFieldSet() *FieldSet {
	fs := &FieldSet{index: make(map[string]int)}
	for _, name := range KnownFields {
		fs.Set(name, nil)
	}
	return fs
}

// Set stores a value; nil means null.
func (fs *FieldSet) Set(name string, v *string) {
	if fs.index == nil {
		fs.index = make(map[string]int)
	}
	if i, ok := fs.index[name]; ok {
		fs.fields[i].Value = v
		return
	}
	fs.index[name] = len(fs.fields)
	fs.fields = append(fs.fields, Field{Name: name, Value: v})
}

// Get returns a field's value and whether the field exists.
func (fs *FieldSet) Get(name string) (*string, bool) {
	i, ok := fs.index[name]
	if !ok {
		return nil, false
	}
	return fs.fields[i].Value, true
}

// All returns the fields in display order.
func (fs *FieldSet) All() []Field {
	out := make([]Field, len(fs.fields))
	copy(out, fs.fields)
	return out
}

// Len returns the number of fields.
func (fs *FieldSet) Len() int {
	return len(fs.fields)
}

// MarshalJSON encodes the set as an ordered object with explicit nulls.
func (fs *FieldSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fs.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		if f.Value == nil {
			buf.WriteString("null")
			continue
		}
		v, err := json.Marshal(*f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
