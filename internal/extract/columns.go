package extract

// ResolveColumns returns the table's display columns: its declared columns
// followed by every key seen across all rows, in first-seen order, with
// reserved metadata keys and duplicates removed.
//
// The whole row sequence is scanned, not just the first row, so a column
// that only appears in later (sparse) rows is still shown.
func ResolveColumns(t Table) []string {
	seen := make(map[string]struct{})
	cols := make([]string, 0, len(t.Columns))

	add := func(key string) {
		if IsReserved(key) {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		cols = append(cols, key)
	}

	for _, c := range t.Columns {
		add(c)
	}
	for _, row := range t.Rows {
		for _, key := range row.keys {
			add(key)
		}
	}
	return cols
}
