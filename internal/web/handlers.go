package web

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/pdftables/internal/client"
	"github.com/JonMunkholm/pdftables/internal/core"
	"github.com/JonMunkholm/pdftables/internal/history"
	"github.com/JonMunkholm/pdftables/internal/session"
	"github.com/JonMunkholm/pdftables/internal/web/views"
)

// formOverhead is the slack allowed above the file size for multipart framing.
const formOverhead = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	st := s.sessionFor(w, r)
	data := views.NewPageData(st.Current(), st.Busy())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.Page(data).Render(r.Context(), w); err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
	}
}

// handleUpload streams the "file" part of a multipart form to the service.
// Plain form posts are redirected back to the page, HTMX requests get the
// results fragment and API clients get JSON.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	st := s.sessionFor(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, s.service.MaxFileSize()+formOverhead)

	var (
		reader   io.Reader
		filename string
	)
	part, err := filePart(r)
	if err == nil {
		defer part.Close()
		reader, filename = part, part.FileName()
	} else {
		var mbe *http.MaxBytesError
		switch {
		case errors.As(err, &mbe):
			reader = errReader{fmt.Errorf("%w: %v", core.ErrFileTooLarge, err)}
		case !errors.Is(err, core.ErrNoFile):
			reader = errReader{fmt.Errorf("%w: %v", core.ErrBadUploadForm, err)}
		}
	}

	snap, err := s.service.Process(r.Context(), st, filename, reader)
	if err != nil {
		if !errors.Is(err, core.ErrBusy) && !isHTMX(r) && !wantsJSON(r) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		respondError(w, r, err, statusFor(err))
		return
	}

	data := views.NewPageData(snap, false)
	switch {
	case isHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		views.Results(data).Render(r.Context(), w)
	case wantsJSON(r):
		writeJSON(w, http.StatusOK, data)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// filePart returns the first multipart part named client.FormField that
// carries a file name.
func filePart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	for {
		part, err := mr.NextPart()
		if err != nil {
			// a bare io.EOF is the closing boundary; a wrapped one is a truncated body
			if err == io.EOF {
				return nil, core.ErrNoFile
			}
			return nil, err
		}
		if part.FormName() == client.FormField && part.FileName() != "" {
			return part, nil
		}
		part.Close()
	}
}

// errReader fails every read with err.
type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	st := s.sessionFor(w, r)
	s.service.Clear(st)

	switch {
	case isHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		views.Results(views.NewPageData(st.Current(), st.Busy())).Render(r.Context(), w)
	case wantsJSON(r):
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// handleExport downloads one table of the session's current result as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	st := s.sessionFor(w, r)

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		err = fmt.Errorf("export index %q: %w", chi.URLParam(r, "index"), core.ErrIndexOutOfRange)
		respondError(w, r, err, statusFor(err))
		return
	}

	sink := &httpSink{w: w}
	if err := s.service.Export(st, index, sink); err != nil {
		if sink.written {
			logErrorAfterWrite(r, err)
			return
		}
		respondError(w, r, err, statusFor(err))
	}
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	st := s.sessionFor(w, r)
	writeJSON(w, http.StatusOK, views.NewPageData(st.Current(), st.Busy()))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := history.DefaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	entries, err := s.service.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		views.HistoryList(entries).Render(r.Context(), w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// StatusResponse describes server load.
type StatusResponse struct {
	Uploads  session.LimiterStatus `json:"uploads"`
	Sessions int                   `json:"sessions"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Uploads:  s.service.UploadLimiterStatus(),
		Sessions: s.sessions.Len(),
	})
}
