package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/pdftables/internal/extract"
	"github.com/JonMunkholm/pdftables/internal/history"
)

// ResultsID is the element HTMX swaps after an upload or clear.
const ResultsID = "results"

// html writes markup, remembering the first write error.
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *html) rawf(format string, args ...any) {
	if h.err == nil {
		_, h.err = fmt.Fprintf(h.w, format, args...)
	}
}

func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *html) render(ctx context.Context, c templ.Component) {
	if h.err == nil {
		h.err = c.Render(ctx, h.w)
	}
}

// Page is the full document: upload form plus results.
func Page(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>PDF Table Extractor</title></head><body><main class="page">`)
		h.raw(`<h1>PDF Table Extractor</h1>`)
		h.render(ctx, UploadForm(data.Busy))
		h.rawf(`<section id="%s">`, ResultsID)
		h.render(ctx, Results(data))
		h.raw(`</section></main></body></html>`)
		return h.err
	})
}

// UploadForm posts the PDF. While an upload is running the button is
// disabled and reads "Processing...".
func UploadForm(busy bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.rawf(`<form class="upload" action="/upload" method="post" enctype="multipart/form-data" hx-post="/upload" hx-target="#%s" hx-encoding="multipart/form-data" hx-disabled-elt="find button">`, ResultsID)
		h.raw(`<input type="file" name="file" accept="application/pdf" required>`)
		if busy {
			h.raw(`<button type="submit" disabled>Processing...</button>`)
		} else {
			h.raw(`<button type="submit">Upload PDF</button>`)
		}
		h.raw(`</form>`)
		h.rawf(`<form class="clear" action="/clear" method="post" hx-post="/clear" hx-target="#%s"><button type="submit">Clear</button></form>`, ResultsID)
		return h.err
	})
}

// Results is the swappable part of the page.
func Results(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		if data.Failure != nil {
			h.render(ctx, ErrorAlert(data.Failure.Message, data.Failure.Action, data.Failure.Code))
		}
		if len(data.Tables) == 0 && data.Failure == nil {
			msg := data.Message
			if msg == "" {
				msg = EmptyText
			}
			h.raw(`<p class="empty">`)
			h.text(msg)
			h.raw(`</p>`)
		}
		if len(data.Fields) > 0 {
			h.render(ctx, FieldsPanel(data.Fields))
		}
		for _, tv := range data.Tables {
			h.render(ctx, TableCard(tv))
		}
		return h.err
	})
}

// TableCard renders one table, or the columnless warning.
func TableCard(tv TableView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.rawf(`<article class="table-card" id="table-%d"><header><h2>`, tv.Index)
		h.text(tv.Title)
		h.raw(`</h2>`)
		if tv.ExportURL != "" {
			h.raw(`<a class="download" href="`)
			h.text(tv.ExportURL)
			h.raw(`" download="`)
			h.text(tv.Filename)
			h.raw(`">Download CSV</a>`)
		}
		h.raw(`</header>`)

		if tv.Columnless {
			h.raw(`<p class="warning">`)
			h.text(NoColumnsText)
			h.raw(`</p></article>`)
			return h.err
		}

		h.raw(`<table><thead><tr>`)
		for _, c := range tv.Columns {
			h.raw(`<th>`)
			h.text(c)
			h.raw(`</th>`)
		}
		h.raw(`</tr></thead><tbody>`)
		if len(tv.Rows) == 0 {
			h.rawf(`<tr><td colspan="%d">`, len(tv.Columns))
			h.text(NoRowsText)
			h.raw(`</td></tr>`)
		}
		for _, row := range tv.Rows {
			h.raw(`<tr>`)
			for _, cell := range row {
				if cell.Align == extract.AlignRight {
					h.raw(`<td class="num">`)
				} else {
					h.raw(`<td>`)
				}
				h.text(cell.Text)
				h.raw(`</td>`)
			}
			h.raw(`</tr>`)
		}
		h.raw(`</tbody></table></article>`)
		return h.err
	})
}

// FieldsPanel lists the summary fields, null ones as "null".
func FieldsPanel(fields []FieldView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<section class="fields"><h2>Document fields</h2><dl>`)
		for _, f := range fields {
			h.raw(`<dt>`)
			h.text(f.Name)
			if f.Null {
				h.raw(`</dt><dd class="null">`)
			} else {
				h.raw(`</dt><dd>`)
			}
			h.text(f.Value)
			h.raw(`</dd>`)
		}
		h.raw(`</dl></section>`)
		return h.err
	})
}

// ErrorAlert shows a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<div class="alert alert-error" role="alert"><p>`)
		h.text(message)
		h.raw(`</p>`)
		if action != "" {
			h.raw(`<p class="action">`)
			h.text(action)
			h.raw(`</p>`)
		}
		if code != "" {
			h.raw(`<p class="code">Code: `)
			h.text(code)
			h.raw(`</p>`)
		}
		h.raw(`</div>`)
		return h.err
	})
}

// HistoryList renders recent extractions.
func HistoryList(entries []history.Entry) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<table class="history"><thead><tr><th>File</th><th>Tables</th><th>Rows</th><th>Status</th><th>When</th></tr></thead><tbody>`)
		for _, e := range entries {
			h.raw(`<tr><td>`)
			h.text(e.FileName)
			h.rawf(`</td><td class="num">%d</td><td class="num">%d</td><td>`, e.TableCount, e.RowCount)
			h.text(e.Status)
			h.raw(`</td><td>`)
			h.text(e.CreatedAt.Format("2006-01-02 15:04:05"))
			h.raw(`</td></tr>`)
		}
		h.raw(`</tbody></table>`)
		return h.err
	})
}
