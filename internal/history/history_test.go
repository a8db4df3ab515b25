package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultRecentLimit},
		{-5, DefaultRecentLimit},
		{1, 1},
		{50, 50},
		{MaxRecentLimit + 1, MaxRecentLimit},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.in); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPrepare_FillsDefaults(t *testing.T) {
	e := prepare(Entry{FileName: "a.pdf"})

	if _, err := uuid.Parse(e.ID); err != nil {
		t.Errorf("ID = %q, not a UUID: %v", e.ID, err)
	}
	if e.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
	if e.Status != StatusSucceeded {
		t.Errorf("Status = %q, want %q", e.Status, StatusSucceeded)
	}
}

func TestPrepare_KeepsGivenValues(t *testing.T) {
	at := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	in := Entry{ID: "7d444840-9dc0-11d1-b245-5ffdce74fad2", Status: StatusFailed, CreatedAt: at}

	e := prepare(in)
	if e != in {
		t.Errorf("prepare changed a complete entry: %+v", e)
	}
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	if err := r.Record(context.Background(), Entry{}); err != nil {
		t.Errorf("Record() error = %v", err)
	}
	if _, err := r.Recent(context.Background(), 10); !errors.Is(err, ErrDisabled) {
		t.Errorf("Recent() error = %v, want ErrDisabled", err)
	}
}
