// Package views renders the extraction UI as templ components.
package views

import (
	"strconv"

	"github.com/JonMunkholm/pdftables/internal/extract"
	"github.com/JonMunkholm/pdftables/internal/session"
)

// Display strings.
const (
	NoColumnsText = "No columns found for this table."
	NoRowsText    = "No data available"
	EmptyText     = "No tables extracted yet. Upload a PDF to begin."
)

// PageData is everything the page and the /api/tables endpoint show.
type PageData struct {
	ExtractionID string           `json:"extraction_id,omitempty"`
	FileName     string           `json:"file_name,omitempty"`
	Busy         bool             `json:"busy"`
	Message      string           `json:"message,omitempty"`
	Failure      *session.Failure `json:"failure,omitempty"`
	Tables       []TableView      `json:"tables"`
	Fields       []FieldView      `json:"fields,omitempty"`
}

// TableView is one table prepared for display.
type TableView struct {
	Index      int                   `json:"index"`
	Title      string                `json:"title"`
	Columns    []string              `json:"columns"`
	Columnless bool                  `json:"columnless"`
	Rows       [][]extract.Formatted `json:"rows"`
	Metadata   *extract.Metadata     `json:"metadata,omitempty"`
	ExportURL  string                `json:"export_url,omitempty"`
	Filename   string                `json:"filename,omitempty"`
}

// FieldView is one summary field; Null marks a field the service left empty.
type FieldView struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Null  bool   `json:"null"`
}

// NewPageData builds the view of a snapshot.
func NewPageData(snap *session.Snapshot, busy bool) PageData {
	data := PageData{
		Busy:   busy,
		Tables: []TableView{},
	}
	if snap == nil {
		return data
	}

	data.ExtractionID = snap.ExtractionID
	data.FileName = snap.FileName
	data.Message = snap.Message
	data.Failure = snap.Failure

	for i, t := range snap.Tables {
		data.Tables = append(data.Tables, NewTableView(t, i))
	}
	if snap.Fields != nil {
		for _, f := range snap.Fields.All() {
			data.Fields = append(data.Fields, FieldView{
				Name:  f.Name,
				Value: extract.FormatField(f.Value),
				Null:  f.Value == nil,
			})
		}
	}
	return data
}

// NewTableView resolves columns and formats every cell of t.
func NewTableView(t extract.Table, index int) TableView {
	cols := extract.ResolveColumns(t)
	tv := TableView{
		Index:      index,
		Title:      t.Title,
		Columns:    cols,
		Columnless: len(cols) == 0,
		Rows:       make([][]extract.Formatted, 0, len(t.Rows)),
		Metadata:   t.Metadata,
	}
	if tv.Columnless {
		return tv
	}

	tv.ExportURL = "/export/" + strconv.Itoa(index)
	tv.Filename = extract.FilenameFor(t, index)
	for _, row := range t.Rows {
		cells := make([]extract.Formatted, len(cols))
		for j, c := range cols {
			v, _ := row.Get(c)
			cells[j] = extract.FormatCell(v)
		}
		tv.Rows = append(tv.Rows, cells)
	}
	return tv
}
