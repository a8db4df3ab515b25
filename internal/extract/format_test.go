package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCell(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  Formatted
	}{
		{"integer", Number("42"), Formatted{Text: "42", Align: AlignRight}},
		{"literal decimal kept", Number("1.50"), Formatted{Text: "1.50", Align: AlignRight}},
		{"exponent kept", Number("1e3"), Formatted{Text: "1e3", Align: AlignRight}},
		{"numeric-looking text stays text", Text("1,000"), Formatted{Text: "1,000", Align: AlignLeft}},
		{"text", Text("Premium"), Formatted{Text: "Premium", Align: AlignLeft}},
		{"empty text", Text(""), Formatted{Text: "", Align: AlignLeft}},
		{"absent", Absent, Formatted{Text: "", Align: AlignLeft}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCell(tt.value))
		})
	}
}

func TestFormatField(t *testing.T) {
	name := "Jane Doe"
	empty := ""

	assert.Equal(t, "null", FormatField(nil))
	assert.Equal(t, "Jane Doe", FormatField(&name))
	assert.Equal(t, "", FormatField(&empty))
}

func TestFieldSet_NullDisplaysLiteral(t *testing.T) {
	res, err := Normalize([]byte(`{"fields": {"insured_name": null}}`))
	require.NoError(t, err)
	require.NotNil(t, res.Fields)

	v, ok := res.Fields.Get(FieldInsuredName)
	require.True(t, ok)
	assert.Equal(t, "null", FormatField(v))
}

func TestFieldSet_OrderAndExtras(t *testing.T) {
	res, err := Normalize([]byte(`{"fields": {"policy_number": "A-1", "assumed_ror": "6%", "face_amount": 250000}}`))
	require.NoError(t, err)

	var names []string
	for _, f := range res.Fields.All() {
		names = append(names, f.Name)
	}
	want := append(append([]string{}, KnownFields...), "policy_number", "face_amount")
	assert.Equal(t, want, names)

	face, _ := res.Fields.Get("face_amount")
	require.NotNil(t, face)
	assert.Equal(t, "250000", *face)
}

func TestFieldSet_MarshalJSON(t *testing.T) {
	fs := NewFieldSet()
	v := "2024-01-15"
	fs.Set(FieldIllustrationDate, &v)

	b, err := json.Marshal(fs)
	require.NoError(t, err)
	assert.Equal(t,
		`{"illustration_date":"2024-01-15","insured_name":null,"initial_death_benefit":null,"assumed_ror":null,"minimum_initial_pmt":null}`,
		string(b))
}

func TestRow_MarshalJSONKeepsOrder(t *testing.T) {
	row := NewRow("b", Number("2.0"), "a", "x", "c", nil)

	b, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, `{"b":2.0,"a":"x","c":null}`, string(b))
}

func TestRow_RepeatedKeyKeepsFirstPosition(t *testing.T) {
	var row Row
	row.Set("a", Text("1"))
	row.Set("b", Text("2"))
	row.Set("a", Text("3"))

	assert.Equal(t, []string{"a", "b"}, row.Keys())
	v, _ := row.Get("a")
	assert.Equal(t, "3", v.String())
}
