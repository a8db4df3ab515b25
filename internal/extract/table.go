// Package extract turns table-extraction service payloads into canonical
// tables and renders them for display and CSV export.
//
// The service has answered in several incompatible shapes over time. Normalize
// accepts all of them without a version tag and produces one canonical
// []Table plus an optional FieldSet. ResolveColumns, FormatCell and ToCSV
// operate only on the canonical model and are pure functions.
package extract

import (
	"bytes"
	"encoding/json"
)

// Reserved row keys carrying provenance. They are never data columns.
const (
	KeySourceText = "Source_Text"
	KeyPageNumber = "Page_Number"
)

// IsReserved reports whether key is a reserved metadata key.
func IsReserved(key string) bool {
	return key == KeySourceText || key == KeyPageNumber
}

// Row is an ordered mapping from column name to cell value. Keys keep the
// order in which they appeared in the payload.
type Row struct {
	keys   []string
	values map[string]Value
}

// NewRow builds a row from alternating key/value pairs in order.
func NewRow(pairs ...any) Row {
	var r Row
	for i := 0; i+1 < len(pairs); i += 2 {
		key, _ := pairs[i].(string)
		switch v := pairs[i+1].(type) {
		case Value:
			r.Set(key, v)
		case string:
			r.Set(key, Text(v))
		case nil:
			r.Set(key, Absent)
		}
	}
	return r
}

// Set stores a value. A repeated key keeps its first position and takes the
// latest value.
func (r *Row) Set(key string, v Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Get returns the value stored under key.
func (r Row) Get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the row's keys in payload order, reserved keys included.
func (r Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of keys in the row.
func (r Row) Len() int {
	return len(r.keys)
}

// MarshalJSON encodes the row as an object preserving key order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := r.values[key].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Extractor names the upstream backend that produced a table.
// Values outside the known set are carried through unchanged.
type Extractor string

const (
	ExtractorPyMuPDF    Extractor = "PyMuPDF"
	ExtractorPdfplumber Extractor = "pdfplumber"
)

// Known reports whether e is one of the backends this client recognizes.
func (e Extractor) Known() bool {
	return e == ExtractorPyMuPDF || e == ExtractorPdfplumber
}

// Shape identifies the response variant a table was decoded from.
type Shape string

const (
	ShapeCurrent Shape = "current"
	ShapeLegacy  Shape = "legacy"
	ShapeKeyed   Shape = "keyed"
)

// Metadata is the provenance the service attached to a table.
type Metadata struct {
	Source    string    `json:"source,omitempty"`
	Page      string    `json:"page,omitempty"`
	Keyword   string    `json:"keyword,omitempty"`
	Extractor Extractor `json:"extractor,omitempty"`
}

func (m *Metadata) empty() bool {
	return m == nil || (m.Source == "" && m.Page == "" && m.Keyword == "" && m.Extractor == "")
}

// Table is the canonical, version-independent form of one extracted table.
// Tables are immutable snapshots of a single response.
type Table struct {
	ID       int       `json:"id"`
	Title    string    `json:"title"`
	Columns  []string  `json:"columns"`
	Rows     []Row     `json:"rows"`
	Metadata *Metadata `json:"metadata,omitempty"`
	Shape    Shape     `json:"shape"`
}

// Columnless reports whether no row contributed a usable column. Such a
// table is shown as a warning and cannot be exported.
func (t Table) Columnless() bool {
	return len(ResolveColumns(t)) == 0
}

// RowCount returns the number of data rows.
func (t Table) RowCount() int {
	return len(t.Rows)
}

// Result is the outcome of normalizing one response.
type Result struct {
	Tables  []Table
	Fields  *FieldSet
	Message string
}

// RowCount returns the total rows across all tables.
func (r *Result) RowCount() int {
	n := 0
	for _, t := range r.Tables {
		n += len(t.Rows)
	}
	return n
}
