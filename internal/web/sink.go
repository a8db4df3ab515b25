package web

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/pdftables/internal/logging"
)

// httpSink delivers an export as a file download.
type httpSink struct {
	w       http.ResponseWriter
	written bool
}

func (s *httpSink) Emit(content, mimeType, filename string) error {
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	if disposition == "" {
		disposition = "attachment"
	}

	h := s.w.Header()
	h.Set("Content-Type", mimeType+"; charset=utf-8")
	h.Set("Content-Disposition", disposition)
	h.Set("Content-Length", strconv.Itoa(len(content)))
	h.Set("Cache-Control", "no-store")

	s.written = true
	_, err := io.WriteString(s.w, content)
	return err
}

func logErrorAfterWrite(r *http.Request, err error) {
	logging.FromContext(r.Context()).Error("export write failed",
		"path", r.URL.Path,
		"error", err.Error(),
	)
}
