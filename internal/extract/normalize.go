package extract

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/valyala/fastjson"

	"github.com/JonMunkholm/pdftables/internal/extract/envelope"
)

// fastjson is used instead of encoding/json because row objects must keep
// the key order the service sent; map decoding would lose it.
var parsers fastjson.ParserPool

// Normalize decodes a raw service response into canonical tables.
//
// Accepted shapes, told apart by which keys are present:
//
//	{"tables": [{"source", "page", "keyword", "extractor", "data": [...]}], "fields"?, "message"?}
//	{"tables": [{"source_text", "page_number", "data": [...]}], "message"?}
//	{"tables_by_text": {"<label>": {"headers": [...], "rows": [[...]]}}}
//	{"message": "..."} or {"error": "..."} with no tables
//
// When no tables are present the returned Result has an empty table list and
// Message holds the server's message, or DefaultNoTablesMessage. Anything
// else fails with ErrMalformedResponse.
func Normalize(raw []byte) (*Result, error) {
	if err := envelope.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	p := parsers.Get()
	defer parsers.Put(p)

	doc, err := p.ParseBytes(raw)
	if err != nil {
		return nil, malformed("invalid JSON: %v", err)
	}
	root, err := doc.Object()
	if err != nil {
		return nil, malformed("response is not an object")
	}

	res := &Result{}

	if res.Fields, err = decodeFields(root.Get("fields")); err != nil {
		return nil, err
	}

	message, _ := scalarText(root.Get("message"))
	serviceErr, _ := scalarText(root.Get("error"))

	switch tables := root.Get("tables"); {
	case hasItems(tables):
		if res.Tables, err = decodeTables(tables); err != nil {
			return nil, err
		}
	case hasItems(root.Get("tables_by_text")):
		if res.Tables, err = decodeKeyed(root.Get("tables_by_text")); err != nil {
			return nil, err
		}
	}

	if len(res.Tables) > 0 {
		res.Message = message
		return res, nil
	}

	switch {
	case message != "":
		res.Message = message
	case serviceErr != "":
		res.Message = serviceErr
	default:
		res.Message = DefaultNoTablesMessage
	}
	return res, nil
}

// hasItems reports whether v is a non-empty array or object.
func hasItems(v *fastjson.Value) bool {
	if v == nil {
		return false
	}
	switch v.Type() {
	case fastjson.TypeArray:
		arr, _ := v.Array()
		return len(arr) > 0
	case fastjson.TypeObject:
		obj, _ := v.Object()
		return obj.Len() > 0
	}
	return false
}

func decodeTables(v *fastjson.Value) ([]Table, error) {
	entries, err := v.Array()
	if err != nil {
		return nil, malformed("tables is not an array")
	}

	tables := make([]Table, 0, len(entries))
	for i, entry := range entries {
		obj, err := entry.Object()
		if err != nil {
			return nil, malformed("tables[%d] is not an object", i)
		}

		data := obj.Get("data")
		if data == nil || data.Type() != fastjson.TypeArray {
			return nil, malformed("tables[%d].data is not an array", i)
		}
		rows, err := decodeRows(data, i)
		if err != nil {
			return nil, err
		}

		t := Table{ID: i, Rows: rows}
		if obj.Get("source_text") != nil || obj.Get("page_number") != nil {
			t.Shape = ShapeLegacy
			t.Metadata = legacyMetadata(obj, rows)
		} else {
			t.Shape = ShapeCurrent
			t.Metadata = currentMetadata(obj)
		}
		t.Title = deriveTitle(t.Metadata, i)
		t.Columns = ResolveColumns(t)
		tables = append(tables, t)
	}
	return tables, nil
}

func currentMetadata(obj *fastjson.Object) *Metadata {
	md := &Metadata{}
	md.Source, _ = scalarText(obj.Get("source"))
	md.Page, _ = scalarText(obj.Get("page"))
	md.Keyword, _ = scalarText(obj.Get("keyword"))
	ext, _ := scalarText(obj.Get("extractor"))
	md.Extractor = Extractor(ext)
	if md.empty() {
		return nil
	}
	if md.Extractor != "" && !md.Extractor.Known() {
		slog.Debug("unknown extractor passed through", "extractor", string(md.Extractor))
	}
	return md
}

// legacyMetadata reads pdfplumber provenance. Older builds only put it on the
// rows, so the first row's reserved keys fill in whatever the table lacks.
func legacyMetadata(obj *fastjson.Object, rows []Row) *Metadata {
	md := &Metadata{}
	md.Source, _ = scalarText(obj.Get("source_text"))
	md.Page, _ = scalarText(obj.Get("page_number"))
	if len(rows) > 0 {
		if md.Source == "" {
			if v, ok := rows[0].Get(KeySourceText); ok {
				md.Source = v.String()
			}
		}
		if md.Page == "" {
			if v, ok := rows[0].Get(KeyPageNumber); ok {
				md.Page = v.String()
			}
		}
	}
	if md.empty() {
		return nil
	}
	return md
}

func deriveTitle(md *Metadata, id int) string {
	if md != nil {
		switch {
		case md.Source != "" && md.Page != "":
			return fmt.Sprintf("Table from %s (Page %s)", md.Source, md.Page)
		case md.Source != "":
			return "Table from " + md.Source
		case md.Keyword != "":
			return md.Keyword
		}
	}
	return "Table " + strconv.Itoa(id+1)
}

func decodeRows(v *fastjson.Value, tableIdx int) ([]Row, error) {
	items, _ := v.Array()
	rows := make([]Row, 0, len(items))
	for j, item := range items {
		obj, err := item.Object()
		if err != nil {
			return nil, malformed("tables[%d].data[%d] is not an object", tableIdx, j)
		}

		var row Row
		var cellErr error
		obj.Visit(func(key []byte, cell *fastjson.Value) {
			if cellErr != nil {
				return
			}
			val, err := decodeValue(cell)
			if err != nil {
				cellErr = malformed("tables[%d].data[%d].%s: %v", tableIdx, j, key, err)
				return
			}
			row.Set(string(key), val)
		})
		if cellErr != nil {
			return nil, cellErr
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// decodeKeyed handles the oldest shape, where each table is keyed by the
// search text that located it and rows are positional arrays.
func decodeKeyed(v *fastjson.Value) ([]Table, error) {
	obj, err := v.Object()
	if err != nil {
		return nil, malformed("tables_by_text is not an object")
	}

	var tables []Table
	var decodeErr error
	obj.Visit(func(key []byte, entry *fastjson.Value) {
		if decodeErr != nil {
			return
		}
		label := string(key)
		t, err := decodeKeyedTable(label, entry, len(tables))
		if err != nil {
			decodeErr = err
			return
		}
		tables = append(tables, t)
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return tables, nil
}

func decodeKeyedTable(label string, v *fastjson.Value, id int) (Table, error) {
	obj, err := v.Object()
	if err != nil {
		return Table{}, malformed("tables_by_text[%q] is not an object", label)
	}

	hv := obj.Get("headers")
	if hv == nil || hv.Type() != fastjson.TypeArray {
		return Table{}, malformed("tables_by_text[%q].headers is not an array", label)
	}
	rv := obj.Get("rows")
	if rv == nil || rv.Type() != fastjson.TypeArray {
		return Table{}, malformed("tables_by_text[%q].rows is not an array", label)
	}

	rawHeaders, _ := hv.Array()
	headers := make([]string, len(rawHeaders))
	used := make(map[string]bool, len(rawHeaders))
	for i, h := range rawHeaders {
		name, _ := scalarText(h)
		if name == "" || used[name] {
			name = "Column " + strconv.Itoa(i+1)
			for n := i + 2; used[name]; n++ {
				name = "Column " + strconv.Itoa(n)
			}
		}
		used[name] = true
		headers[i] = name
	}

	rawRows, _ := rv.Array()
	rows := make([]Row, 0, len(rawRows))
	for j, r := range rawRows {
		cells, err := r.Array()
		if err != nil {
			return Table{}, malformed("tables_by_text[%q].rows[%d] is not an array", label, j)
		}
		if len(cells) > len(headers) {
			slog.Debug("dropping cells beyond header width",
				"table", label,
				"row", j,
				"cells", len(cells),
				"headers", len(headers),
			)
		}

		var row Row
		for i, name := range headers {
			if i >= len(cells) {
				row.Set(name, Absent)
				continue
			}
			val, err := decodeValue(cells[i])
			if err != nil {
				return Table{}, malformed("tables_by_text[%q].rows[%d][%d]: %v", label, j, i, err)
			}
			row.Set(name, val)
		}
		rows = append(rows, row)
	}

	t := Table{
		ID:       id,
		Title:    label,
		Columns:  headers,
		Rows:     rows,
		Metadata: &Metadata{Keyword: label},
		Shape:    ShapeKeyed,
	}
	if label == "" {
		t.Title = deriveTitle(nil, id)
		t.Metadata = nil
	}
	t.Columns = ResolveColumns(t)
	return t, nil
}

func decodeFields(v *fastjson.Value) (*FieldSet, error) {
	if v == nil || v.Type() == fastjson.TypeNull {
		return nil, nil
	}
	obj, err := v.Object()
	if err != nil {
		return nil, malformed("fields is not an object")
	}

	fs := NewFieldSet()
	var fieldErr error
	obj.Visit(func(key []byte, fv *fastjson.Value) {
		if fieldErr != nil {
			return
		}
		switch fv.Type() {
		case fastjson.TypeNull:
			fs.Set(string(key), nil)
		case fastjson.TypeString, fastjson.TypeNumber:
			s, _ := scalarText(fv)
			fs.Set(string(key), &s)
		default:
			fieldErr = malformed("fields.%s is %s, want string or null", key, fv.Type())
		}
	})
	if fieldErr != nil {
		return nil, fieldErr
	}
	return fs, nil
}

// decodeValue converts a JSON scalar into a cell value.
func decodeValue(v *fastjson.Value) (Value, error) {
	switch v.Type() {
	case fastjson.TypeNull:
		return Absent, nil
	case fastjson.TypeString:
		b, _ := v.StringBytes()
		return Text(string(b)), nil
	case fastjson.TypeNumber:
		return Number(string(v.MarshalTo(nil))), nil
	case fastjson.TypeTrue:
		return Text("true"), nil
	case fastjson.TypeFalse:
		return Text("false"), nil
	default:
		return Absent, fmt.Errorf("unsupported cell type %s", v.Type())
	}
}

// scalarText returns the text of a JSON scalar. Null, missing, and
// non-scalar values report false.
func scalarText(v *fastjson.Value) (string, bool) {
	if v == nil {
		return "", false
	}
	switch v.Type() {
	case fastjson.TypeString:
		b, _ := v.StringBytes()
		return string(b), true
	case fastjson.TypeNumber:
		return string(v.MarshalTo(nil)), true
	case fastjson.TypeTrue:
		return "true", true
	case fastjson.TypeFalse:
		return "false", true
	}
	return "", false
}
