package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_AcceptsKnownShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"current", `{"tables": [{"source": "a.pdf", "page": 1, "keyword": "k", "extractor": "PyMuPDF", "data": [{"A": 1, "B": "x", "C": null}]}], "fields": {"insured_name": null}, "message": "ok"}`},
		{"legacy", `{"tables": [{"source_text": "s", "page_number": 2, "data": [{"Source_Text": "s", "Page_Number": 2, "A": "1"}]}]}`},
		{"message only", `{"message": "No tables found."}`},
		{"keyed", `{"tables_by_text": {"x": {"headers": ["a", "b"], "rows": [["1", 2], []]}}}`},
		{"service error", `{"error": "boom"}`},
		{"unknown keys", `{"tables": [{"data": [], "bbox": [1, 2, 3, 4]}], "took_ms": 12}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, Validate([]byte(tt.raw)))
		})
	}
}

func TestValidate_RejectsUnknownShapes(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantLoc string
	}{
		{"not json", `{"tables": [`, ""},
		{"root array", `[]`, "/"},
		{"table without data", `{"tables": [{"source": "a.pdf"}]}`, "/tables/0"},
		{"object cell", `{"tables": [{"data": [{"A": {"v": 1}}]}]}`, "/tables/0/data/0/A"},
		{"message number", `{"message": 404}`, "/message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate([]byte(tt.raw))
			require.Error(t, err)
			if tt.wantLoc != "" {
				assert.Contains(t, err.Error(), tt.wantLoc)
			}
		})
	}
}
