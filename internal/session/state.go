// Package session holds per-user extraction state: the busy flag guarding
// uploads and the current set of tables, plus the stores that keep sessions
// and normalized results in memory.
package session

import (
	"sync/atomic"
	"time"

	"github.com/JonMunkholm/pdftables/internal/extract"
)

// Failure is the user-facing description of a failed upload.
type Failure struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// Snapshot is one upload's outcome. Snapshots are never modified after
// they are published; a new upload publishes a new one.
type Snapshot struct {
	ExtractionID string            `json:"extraction_id,omitempty"`
	FileName     string            `json:"file_name,omitempty"`
	UploadedAt   time.Time         `json:"uploaded_at"`
	Tables       []extract.Table   `json:"tables"`
	Fields       *extract.FieldSet `json:"fields"`
	Message      string            `json:"message,omitempty"`
	Failure      *Failure          `json:"failure,omitempty"`
}

var emptySnapshot = &Snapshot{}

// State is one session's extraction state.
type State struct {
	id      string
	busy    *UploadLimiter
	current atomic.Pointer[Snapshot]
}

// NewState returns an idle session with no tables.
func NewState(id string) *State {
	s := &State{
		id:   id,
		busy: NewUploadLimiter(1, time.Millisecond),
	}
	s.current.Store(emptySnapshot)
	return s
}

// ID returns the session identifier.
func (s *State) ID() string {
	return s.id
}

// Begin marks the session busy. It returns false, and does nothing, when an
// upload is already in flight.
func (s *State) Begin() bool {
	return s.busy.TryAcquire()
}

// End clears the busy flag set by a successful Begin.
func (s *State) End() {
	s.busy.Release()
}

// Busy reports whether an upload is in flight.
func (s *State) Busy() bool {
	return s.busy.ActiveCount() > 0
}

// Current returns the published snapshot.
func (s *State) Current() *Snapshot {
	return s.current.Load()
}

// Replace publishes snap as the session's table set. Readers see either the
// previous snapshot or snap, never a mix.
func (s *State) Replace(snap *Snapshot) {
	if snap == nil {
		snap = emptySnapshot
	}
	s.current.Store(snap)
}

// Fail clears the table set and records why the upload failed.
func (s *State) Fail(fileName string, f Failure) {
	s.current.Store(&Snapshot{
		FileName:   fileName,
		UploadedAt: time.Now(),
		Failure:    &f,
	})
}

// Clear discards the current tables.
func (s *State) Clear() {
	s.current.Store(emptySnapshot)
}
