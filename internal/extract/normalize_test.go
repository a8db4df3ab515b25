package extract

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_CurrentShape(t *testing.T) {
	raw := []byte(`{
		"tables": [
			{
				"source": "statement.pdf",
				"page": 3,
				"keyword": "Premium",
				"extractor": "PyMuPDF",
				"data": [
					{"Year": 1, "Premium": "1,000.00", "Note": null},
					{"Year": 2, "Premium": "1,050.00", "Note": "rider"}
				]
			},
			{
				"keyword": "Cash Value",
				"extractor": "camelot",
				"data": [{"Age": 45}]
			}
		],
		"fields": {"insured_name": "Jane Doe", "assumed_ror": null},
		"message": "Extracted 2 tables",
		"unexpected": {"ignored": true}
	}`)

	res, err := Normalize(raw)
	require.NoError(t, err)
	require.Len(t, res.Tables, 2)

	first := res.Tables[0]
	assert.Equal(t, 0, first.ID)
	assert.Equal(t, ShapeCurrent, first.Shape)
	assert.Equal(t, "Table from statement.pdf (Page 3)", first.Title)
	assert.Equal(t, []string{"Year", "Premium", "Note"}, first.Columns)
	require.Len(t, first.Rows, 2)
	require.NotNil(t, first.Metadata)
	assert.Equal(t, ExtractorPyMuPDF, first.Metadata.Extractor)
	assert.Equal(t, "Premium", first.Metadata.Keyword)

	v, ok := first.Rows[0].Get("Year")
	require.True(t, ok)
	assert.Equal(t, Number("1"), v)
	v, ok = first.Rows[0].Get("Note")
	require.True(t, ok)
	assert.True(t, v.IsAbsent())

	second := res.Tables[1]
	assert.Equal(t, "Cash Value", second.Title)
	assert.Equal(t, Extractor("camelot"), second.Metadata.Extractor)
	assert.False(t, second.Metadata.Extractor.Known())

	require.NotNil(t, res.Fields)
	name, ok := res.Fields.Get(FieldInsuredName)
	require.True(t, ok)
	require.NotNil(t, name)
	assert.Equal(t, "Jane Doe", *name)

	date, ok := res.Fields.Get(FieldIllustrationDate)
	assert.True(t, ok, "known fields are present even when omitted")
	assert.Nil(t, date)

	assert.Equal(t, "Extracted 2 tables", res.Message)
}

func TestNormalize_LegacyShape(t *testing.T) {
	raw := []byte(`{
		"tables": [
			{
				"source_text": "Annual Premium",
				"page_number": 7,
				"data": [
					{"Source_Text": "Annual Premium", "Page_Number": 7, "Year": "2024", "Amount": 1200.5}
				]
			}
		]
	}`)

	res, err := Normalize(raw)
	require.NoError(t, err)
	require.Len(t, res.Tables, 1)

	tbl := res.Tables[0]
	assert.Equal(t, ShapeLegacy, tbl.Shape)
	assert.Equal(t, "Table from Annual Premium (Page 7)", tbl.Title)
	assert.Equal(t, []string{"Year", "Amount"}, tbl.Columns)
	assert.Nil(t, res.Fields)
	assert.Empty(t, res.Message)

	amount, _ := tbl.Rows[0].Get("Amount")
	assert.Equal(t, "1200.5", amount.String())
}

func TestNormalize_LegacyProvenanceFromRows(t *testing.T) {
	raw := []byte(`{
		"tables": [
			{"page_number": null, "data": [{"Source_Text": "Loan Value", "Page_Number": 2, "A": "x"}]}
		]
	}`)

	res, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "Table from Loan Value (Page 2)", res.Tables[0].Title)
}

func TestNormalize_NoTables(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantMessage string
		wantFields  bool
	}{
		{"message only", `{"message": "No tables found."}`, "No tables found.", false},
		{"custom message", `{"message": "Nothing matched your keywords"}`, "Nothing matched your keywords", false},
		{"empty tables default message", `{"tables": []}`, DefaultNoTablesMessage, false},
		{"null tables", `{"tables": null, "message": null}`, DefaultNoTablesMessage, false},
		{"service error", `{"error": "PDF is encrypted"}`, "PDF is encrypted", false},
		{"fields without tables", `{"fields": {"insured_name": null}}`, DefaultNoTablesMessage, true},
		{"empty object", `{}`, DefaultNoTablesMessage, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Normalize([]byte(tt.raw))
			require.NoError(t, err)
			assert.Empty(t, res.Tables)
			assert.Equal(t, tt.wantMessage, res.Message)
			assert.Equal(t, tt.wantFields, res.Fields != nil)
		})
	}
}

func TestNormalize_KeyedShape(t *testing.T) {
	raw := []byte(`{
		"tables_by_text": {
			"Guaranteed Values": {"headers": ["Year", "Value", ""], "rows": [["1", 100, "a", "extra"], ["2"]]},
			"Empty Table": {"headers": ["Only"], "rows": []}
		}
	}`)

	res, err := Normalize(raw)
	require.NoError(t, err)
	require.Len(t, res.Tables, 2)

	first := res.Tables[0]
	assert.Equal(t, "Guaranteed Values", first.Title)
	assert.Equal(t, ShapeKeyed, first.Shape)
	assert.Equal(t, []string{"Year", "Value", "Column 3"}, first.Columns)
	require.Len(t, first.Rows, 2)

	v, ok := first.Rows[1].Get("Value")
	require.True(t, ok)
	assert.True(t, v.IsAbsent())

	second := res.Tables[1]
	assert.Equal(t, 1, second.ID)
	assert.Equal(t, []string{"Only"}, second.Columns)
	assert.Empty(t, second.Rows)
	assert.False(t, second.Columnless())
}

func TestNormalize_KeyedShapeHeaderCollisions(t *testing.T) {
	tests := []struct {
		name    string
		headers string
		want    []string
	}{
		{"generated name already taken", `["Column 2", ""]`, []string{"Column 2", "Column 3"}},
		{"duplicate after generated", `["", "Column 1"]`, []string{"Column 1", "Column 2"}},
		{"chain of taken names", `["Column 2", "Column 3", ""]`, []string{"Column 2", "Column 3", "Column 4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cells := make([]string, len(tt.want))
			for i := range cells {
				cells[i] = `"v` + strconv.Itoa(i) + `"`
			}
			raw := []byte(`{"tables_by_text": {"x": {"headers": ` + tt.headers +
				`, "rows": [[` + strings.Join(cells, ",") + `]]}}}`)

			res, err := Normalize(raw)
			require.NoError(t, err)
			require.Len(t, res.Tables, 1)

			tbl := res.Tables[0]
			assert.Equal(t, tt.want, tbl.Columns)
			require.Len(t, tbl.Rows, 1)
			assert.Equal(t, len(tt.want), tbl.Rows[0].Len(), "every cell survives")
			for i, col := range tt.want {
				v, ok := tbl.Rows[0].Get(col)
				require.True(t, ok, col)
				assert.Equal(t, "v"+strconv.Itoa(i), FormatCell(v).Text)
			}
		})
	}
}

func TestNormalize_PreservesRowKeyOrder(t *testing.T) {
	raw := []byte(`{"tables": [{"data": [{"z": 1, "a": 2, "m": 3}]}]}`)

	res, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, res.Tables[0].Columns)
	assert.Equal(t, "Table 1", res.Tables[0].Title)
	assert.Nil(t, res.Tables[0].Metadata)
}

func TestNormalize_RowCountPreserved(t *testing.T) {
	raw := []byte(`{"tables": [
		{"source": "a.pdf", "page": 1, "data": [{}, {"A": 1}, {"A": null}, {}]},
		{"source_text": "b", "page_number": 2, "data": []}
	]}`)

	res, err := Normalize(raw)
	require.NoError(t, err)
	assert.Len(t, res.Tables[0].Rows, 4)
	assert.Len(t, res.Tables[1].Rows, 0)
	assert.Equal(t, 4, res.RowCount())
}

func TestNormalize_BooleanCellsBecomeText(t *testing.T) {
	res, err := Normalize([]byte(`{"tables": [{"data": [{"Paid": true, "Lapsed": false}]}]}`))
	require.NoError(t, err)

	paid, _ := res.Tables[0].Rows[0].Get("Paid")
	assert.Equal(t, Text("true"), paid)
}

func TestNormalize_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `<html>502 Bad Gateway</html>`},
		{"array root", `[{"data": []}]`},
		{"string root", `"tables"`},
		{"tables not array", `{"tables": {"data": []}}`},
		{"entry not object", `{"tables": ["x"]}`},
		{"missing data", `{"tables": [{"source": "a.pdf"}]}`},
		{"data not array", `{"tables": [{"data": {"A": 1}}]}`},
		{"row not object", `{"tables": [{"data": [[1, 2]]}]}`},
		{"nested cell", `{"tables": [{"data": [{"A": {"b": 1}}]}]}`},
		{"fields not object", `{"fields": "none"}`},
		{"field value object", `{"fields": {"insured_name": {"first": "J"}}}`},
		{"keyed missing headers", `{"tables_by_text": {"x": {"rows": []}}}`},
		{"keyed row not array", `{"tables_by_text": {"x": {"headers": ["a"], "rows": [{"a": 1}]}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Normalize([]byte(tt.raw))
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, ErrMalformedResponse), "got %v", err)
		})
	}
}
