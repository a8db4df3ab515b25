package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/pdftables/internal/extract"
	"github.com/JonMunkholm/pdftables/internal/history"
	"github.com/JonMunkholm/pdftables/internal/logging"
	"github.com/JonMunkholm/pdftables/internal/session"
)

var (
	ErrBusy            = errors.New("extraction already in progress")
	ErrNoFile          = errors.New("no file provided")
	ErrBadUploadForm   = errors.New("malformed upload form")
	ErrEmptyFile       = errors.New("empty file")
	ErrFileTooLarge    = errors.New("file too large")
	ErrIndexOutOfRange = errors.New("table index out of range")
)

// DefaultMaxFileSize is used when Options.MaxFileSize is not positive.
const DefaultMaxFileSize int64 = 50 << 20

// RecordTimeout bounds writing one history entry.
var RecordTimeout = 5 * time.Second

// Uploader posts a PDF to the extraction service and returns the raw reply.
type Uploader interface {
	Upload(ctx context.Context, filename string, pdf []byte) ([]byte, error)
}

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	MaxFileSize   int64
	MaxConcurrent int
	MaxWait       time.Duration
	Cache         *session.ResultCache
	Recorder      history.Recorder
}

// Service runs uploads and exports against session state.
type Service struct {
	uploader    Uploader
	recorder    history.Recorder
	cache       *session.ResultCache
	limiter     *session.UploadLimiter
	maxFileSize int64
}

// NewService creates a Service.
func NewService(uploader Uploader, opts Options) *Service {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.Recorder == nil {
		opts.Recorder = history.Nop{}
	}
	return &Service{
		uploader:    uploader,
		recorder:    opts.Recorder,
		cache:       opts.Cache,
		limiter:     session.NewUploadLimiter(opts.MaxConcurrent, opts.MaxWait),
		maxFileSize: opts.MaxFileSize,
	}
}

// MaxFileSize returns the upload size limit in bytes.
func (s *Service) MaxFileSize() int64 {
	return s.maxFileSize
}

// Process runs one upload for st and returns the published snapshot.
func (s *Service) Process(ctx context.Context, st *session.State, filename string, r io.Reader) (*session.Snapshot, error) {
	if !st.Begin() {
		return nil, ErrBusy
	}
	defer st.End()

	log := logging.WithFields(ctx,
		"session_id", st.ID(),
		"file", filename,
	)
	start := time.Now()

	snap, err := s.extract(ctx, filename, r)
	if err != nil {
		msg := MapError(err)
		st.Fail(filename, msg.Failure())
		s.record(ctx, history.Entry{
			FileName: filename,
			Message:  msg.Message,
			Status:   history.StatusFailed,
		})
		log.Warn("extraction failed",
			slog.String("code", msg.Code),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, err
	}

	st.Replace(snap)
	s.record(ctx, history.Entry{
		ID:         snap.ExtractionID,
		FileName:   filename,
		TableCount: len(snap.Tables),
		RowCount:   rowCount(snap.Tables),
		Message:    snap.Message,
		Status:     history.StatusSucceeded,
		CreatedAt:  snap.UploadedAt,
	})
	log.Info("extraction completed",
		slog.String("extraction_id", snap.ExtractionID),
		slog.Int("tables", len(snap.Tables)),
		slog.Bool("has_fields", snap.Fields != nil),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return snap, nil
}

func (s *Service) extract(ctx context.Context, filename string, r io.Reader) (*session.Snapshot, error) {
	if r == nil {
		return nil, ErrNoFile
	}
	pdf, err := io.ReadAll(io.LimitReader(r, s.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(pdf)) > s.maxFileSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.maxFileSize)
	}
	if len(pdf) == 0 {
		return nil, ErrEmptyFile
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	key := session.Key(pdf)
	res, ok := s.cache.Get(key)
	if ok {
		slog.Debug("result cache hit", slog.String("file", filename))
	} else {
		body, err := s.uploader.Upload(ctx, filename, pdf)
		if err != nil {
			return nil, err
		}
		res, err = extract.Normalize(body)
		if err != nil {
			return nil, err
		}
		s.cache.Add(key, res)
	}

	return &session.Snapshot{
		ExtractionID: uuid.NewString(),
		FileName:     filename,
		UploadedAt:   time.Now().UTC(),
		Tables:       res.Tables,
		Fields:       res.Fields,
		Message:      res.Message,
	}, nil
}

// record writes a history entry. Failures are logged, never returned.
func (s *Service) record(ctx context.Context, e history.Entry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), RecordTimeout)
	defer cancel()
	if err := s.recorder.Record(ctx, e); err != nil {
		logging.FromContext(ctx).Error("failed to record extraction history",
			slog.String("file", e.FileName),
			slog.String("error", err.Error()),
		)
	}
}

func rowCount(tables []extract.Table) int {
	n := 0
	for _, t := range tables {
		n += t.RowCount()
	}
	return n
}

// Table returns table index of the session's current snapshot.
func (s *Service) Table(st *session.State, index int) (extract.Table, error) {
	tables := st.Current().Tables
	if index < 0 || index >= len(tables) {
		return extract.Table{}, fmt.Errorf("table %d of %d: %w", index, len(tables), ErrIndexOutOfRange)
	}
	return tables[index], nil
}

// Export writes table index of the current snapshot to sink as CSV.
func (s *Service) Export(st *session.State, index int, sink extract.DownloadSink) error {
	t, err := s.Table(st, index)
	if err != nil {
		return err
	}
	return extract.Export(sink, t, index)
}

// Clear discards the session's tables.
func (s *Service) Clear(st *session.State) {
	st.Clear()
}

// Recent lists recorded extractions, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	return s.recorder.Recent(ctx, limit)
}

// WaitForUploads blocks until in-flight uploads finish or ctx ends.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// UploadLimiterStatus reports process-wide upload slot usage.
func (s *Service) UploadLimiterStatus() session.LimiterStatus {
	return s.limiter.Status()
}
