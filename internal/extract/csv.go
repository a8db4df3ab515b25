package extract

import (
	"encoding/csv"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// CSVMimeType is the content type passed to a DownloadSink for exports.
const CSVMimeType = "text/csv"

// DownloadSink delivers exported content to the user, e.g. as an HTTP
// attachment or a file on disk.
type DownloadSink interface {
	Emit(content string, mimeType string, filename string) error
}

var whitespaceRun = regexp.MustCompile(`\s+`)

var unsafeFilenameChars = strings.NewReplacer(
	"/", "_", `\`, "_", ":", "_", "*", "_", "?", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_",
)

// ToCSV serializes a table: a header of resolved columns, then one line per
// row with absent values written as empty fields. Fields containing a comma,
// quote, or line break are quoted with embedded quotes doubled, so reading
// the output back with encoding/csv reproduces every row's text exactly.
func ToCSV(t Table) (string, error) {
	cols := ResolveColumns(t)
	if len(cols) == 0 {
		return "", fmt.Errorf("table %d: %w", t.ID, ErrColumnlessTable)
	}

	var b strings.Builder
	w := csv.NewWriter(&b)

	if err := writeRecord(w, &b, cols); err != nil {
		return "", err
	}

	record := make([]string, len(cols))
	for _, row := range t.Rows {
		for i, col := range cols {
			v, _ := row.Get(col)
			record[i] = v.String()
		}
		if err := writeRecord(w, &b, record); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("writing csv: %w", err)
	}
	return b.String(), nil
}

// writeRecord writes one line. encoding/csv emits a blank line for a single
// empty field, which readers skip, so that case is written as "".
func writeRecord(w *csv.Writer, b *strings.Builder, record []string) error {
	if len(record) == 1 && record[0] == "" {
		w.Flush()
		b.WriteString("\"\"\n")
		return w.Error()
	}
	if err := w.Write(record); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

// FilenameFor returns the download name for a table: its title with
// whitespace runs replaced by "_", or table_<index+1> when untitled.
func FilenameFor(t Table, index int) string {
	title := strings.TrimSpace(t.Title)
	if title == "" {
		return "table_" + strconv.Itoa(index+1) + ".csv"
	}
	name := whitespaceRun.ReplaceAllString(title, "_")
	name = unsafeFilenameChars.Replace(name)
	return name + ".csv"
}

// Export serializes a table and hands it to sink.
func Export(sink DownloadSink, t Table, index int) error {
	content, err := ToCSV(t)
	if err != nil {
		return err
	}
	if err := sink.Emit(content, CSVMimeType, FilenameFor(t, index)); err != nil {
		return fmt.Errorf("emitting %s: %w", FilenameFor(t, index), err)
	}
	return nil
}
