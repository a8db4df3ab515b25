package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/JonMunkholm/pdftables/internal/extract"
	"github.com/JonMunkholm/pdftables/internal/session"
)

func render(t *testing.T, data PageData) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Page(data).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func sampleSnapshot() *session.Snapshot {
	name := "P-<1>"
	fields := extract.NewFieldSet()
	fields.Set(extract.FieldInsuredName, &name)

	return &session.Snapshot{
		Tables: []extract.Table{
			{
				ID:    0,
				Title: "Table from Coverage (Page 2)",
				Rows: []extract.Row{
					extract.NewRow("Plan", extract.Text("Gold"), "Premium", extract.Number("120")),
					extract.NewRow("Plan", extract.Text("Silver")),
				},
			},
			{
				ID:    1,
				Title: "Table 2",
				Rows:  []extract.Row{extract.NewRow(extract.KeyPageNumber, extract.Number("3"))},
			},
		},
		Fields: fields,
	}
}

func TestNewPageData(t *testing.T) {
	data := NewPageData(sampleSnapshot(), false)

	if len(data.Tables) != 2 {
		t.Fatalf("len(Tables) = %d, want 2", len(data.Tables))
	}

	first := data.Tables[0]
	if got := strings.Join(first.Columns, ","); got != "Plan,Premium" {
		t.Errorf("Columns = %q, want %q", got, "Plan,Premium")
	}
	if first.Rows[0][1].Align != extract.AlignRight {
		t.Errorf("number cell Align = %q, want right", first.Rows[0][1].Align)
	}
	if first.Rows[1][1].Text != "" {
		t.Errorf("absent cell Text = %q, want empty", first.Rows[1][1].Text)
	}
	if first.ExportURL != "/export/0" {
		t.Errorf("ExportURL = %q, want /export/0", first.ExportURL)
	}

	second := data.Tables[1]
	if !second.Columnless {
		t.Error("table with only reserved keys should be columnless")
	}
	if second.ExportURL != "" {
		t.Errorf("columnless table ExportURL = %q, want empty", second.ExportURL)
	}

	var nullCount int
	for _, f := range data.Fields {
		if f.Null {
			nullCount++
			if f.Value != extract.NullFieldText {
				t.Errorf("null field %s Value = %q, want %q", f.Name, f.Value, extract.NullFieldText)
			}
		}
	}
	if nullCount != len(extract.KnownFields)-1 {
		t.Errorf("null fields = %d, want %d", nullCount, len(extract.KnownFields)-1)
	}
}

func TestPage_Render(t *testing.T) {
	out := render(t, NewPageData(sampleSnapshot(), false))

	for _, want := range []string{
		"Table from Coverage (Page 2)",
		`<td class="num">120</td>`,
		NoColumnsText,
		`href="/export/0"`,
		"P-&lt;1&gt;",
		">null<",
		"Upload PDF",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(out, `href="/export/1"`) {
		t.Error("columnless table must not offer a download")
	}
}

func TestPage_BusyAndEmpty(t *testing.T) {
	out := render(t, NewPageData(&session.Snapshot{}, true))

	if !strings.Contains(out, "Processing...") || !strings.Contains(out, "disabled") {
		t.Error("busy page should show a disabled Processing... button")
	}
	if !strings.Contains(out, EmptyText) {
		t.Errorf("empty page should show %q", EmptyText)
	}
}

func TestResults_MessageAndFailure(t *testing.T) {
	var buf bytes.Buffer
	data := NewPageData(&session.Snapshot{Message: "No tables found."}, false)
	if err := Results(data).Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No tables found.") {
		t.Errorf("results should show the service message: %s", buf.String())
	}

	buf.Reset()
	data = NewPageData(&session.Snapshot{Failure: &session.Failure{Message: "Error uploading PDF.", Code: "NET001"}}, false)
	if err := Results(data).Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Error uploading PDF.") || !strings.Contains(out, "NET001") {
		t.Errorf("results should show the failure: %s", out)
	}
	if strings.Contains(out, EmptyText) {
		t.Error("failure view should not also show the empty-state text")
	}
}

func TestTableCard_NoRows(t *testing.T) {
	tv := TableView{Title: "T", Columns: []string{"A", "B"}}
	var buf bytes.Buffer
	if err := TableCard(tv).Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `colspan="2"`) || !strings.Contains(buf.String(), NoRowsText) {
		t.Errorf("empty table should render %q across all columns: %s", NoRowsText, buf.String())
	}
}
