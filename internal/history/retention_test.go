package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakePruner struct {
	mu      sync.Mutex
	batches []int64 // returned in order, then 0
	err     error
	calls   int
	cutoffs []time.Time
}

func (f *fakePruner) Prune(_ context.Context, cutoff time.Time, limit int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.cutoffs = append(f.cutoffs, cutoff)
	if f.err != nil {
		return 0, f.err
	}
	if len(f.batches) == 0 {
		return 0, nil
	}
	n := f.batches[0]
	f.batches = f.batches[1:]
	return n, nil
}

func (f *fakePruner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestPruneOnce_DrainsFullBatches(t *testing.T) {
	p := &fakePruner{batches: []int64{10, 10, 3}}
	cfg := RetentionConfig{MaxAge: time.Hour, BatchSize: 10}.withDefaults()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	got := pruneOnce(context.Background(), p, cfg, now)

	if got != 23 {
		t.Errorf("deleted = %d, want 23", got)
	}
	if p.calls != 3 {
		t.Errorf("calls = %d, want 3", p.calls)
	}
	if want := now.Add(-time.Hour); !p.cutoffs[0].Equal(want) {
		t.Errorf("cutoff = %v, want %v", p.cutoffs[0], want)
	}
}

func TestPruneOnce_StopsOnError(t *testing.T) {
	p := &fakePruner{err: errors.New("db down")}
	cfg := RetentionConfig{BatchSize: 10}.withDefaults()

	if got := pruneOnce(context.Background(), p, cfg, time.Now()); got != 0 {
		t.Errorf("deleted = %d, want 0", got)
	}
	if p.calls != 1 {
		t.Errorf("calls = %d, want 1", p.calls)
	}
}

func TestRetentionConfig_Defaults(t *testing.T) {
	cfg := RetentionConfig{}.withDefaults()
	if cfg.MaxAge != DefaultMaxAge || cfg.BatchSize != DefaultPruneBatch || cfg.CheckInterval != DefaultCheckInterval {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestRunRetention_RunsAtStartAndStops(t *testing.T) {
	p := &fakePruner{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		RunRetention(ctx, p, RetentionConfig{CheckInterval: time.Hour})
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for p.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if p.callCount() == 0 {
		t.Fatal("no prune at start")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunRetention did not stop after cancel")
	}
}
