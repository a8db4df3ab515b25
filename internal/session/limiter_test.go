package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestUploadLimiter_Status(t *testing.T) {
	l := NewUploadLimiter(3, time.Second)

	steps := []struct {
		name      string
		op        func()
		active    int
		available int
	}{
		{"idle", func() {}, 0, 3},
		{"acquire", func() { l.Acquire(context.Background()) }, 1, 2},
		{"try acquire", func() { l.TryAcquire() }, 2, 1},
		{"release", l.Release, 1, 2},
		{"release last", l.Release, 0, 3},
	}

	for _, s := range steps {
		s.op()
		got := l.Status()
		if got.Active != s.active || got.Available != s.available || got.MaxConcurrent != 3 {
			t.Errorf("%s: Status() = %+v, want active=%d available=%d max=3", s.name, got, s.active, s.available)
		}
	}
}

func TestUploadLimiter_Defaults(t *testing.T) {
	l := NewUploadLimiter(-1, 0)
	if got := l.Status().MaxConcurrent; got != DefaultMaxConcurrentUploads {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentUploads)
	}
	if l.maxWait != DefaultMaxWaitTime {
		t.Errorf("maxWait = %v, want %v", l.maxWait, DefaultMaxWaitTime)
	}
}

// A one-slot limiter is the per-session busy flag.
func TestUploadLimiter_BusyFlag(t *testing.T) {
	busy := NewUploadLimiter(1, time.Millisecond)

	if !busy.TryAcquire() {
		t.Fatal("idle session should accept an upload")
	}
	for i := 0; i < 3; i++ {
		if busy.TryAcquire() {
			t.Fatalf("attempt %d: busy session accepted a second upload", i)
		}
	}
	busy.Release()
	if !busy.TryAcquire() {
		t.Error("session should accept an upload after the first completes")
	}
	busy.Release()
}

func TestUploadLimiter_AcquireFailures(t *testing.T) {
	tests := []struct {
		name    string
		wait    time.Duration
		ctx     func() (context.Context, context.CancelFunc)
		wantErr error
	}{
		{
			name:    "wait time exceeded",
			wait:    30 * time.Millisecond,
			ctx:     func() (context.Context, context.CancelFunc) { return context.WithCancel(context.Background()) },
			wantErr: ErrTooManyUploads,
		},
		{
			name:    "context deadline first",
			wait:    5 * time.Second,
			ctx:     func() (context.Context, context.CancelFunc) { return context.WithTimeout(context.Background(), 20*time.Millisecond) },
			wantErr: context.DeadlineExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewUploadLimiter(1, tt.wait)
			if !l.TryAcquire() {
				t.Fatal("could not take the only slot")
			}
			defer l.Release()

			ctx, cancel := tt.ctx()
			defer cancel()

			if err := l.Acquire(ctx); !errors.Is(err, tt.wantErr) {
				t.Errorf("Acquire() error = %v, want %v", err, tt.wantErr)
			}
			if got := l.ActiveCount(); got != 1 {
				t.Errorf("failed Acquire changed ActiveCount to %d", got)
			}
		})
	}
}

func TestUploadLimiter_BoundsConcurrency(t *testing.T) {
	const limit = 2
	l := NewUploadLimiter(limit, time.Second)

	var inFlight, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire() error = %v", err)
				return
			}
			defer l.Release()

			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(3 * time.Millisecond)
			inFlight.Add(-1)
		}()
	}
	wg.Wait()

	if p := peak.Load(); p > limit {
		t.Errorf("peak in-flight = %d, limit %d", p, limit)
	}
	if got := l.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount after all released = %d, want 0", got)
	}
}

func TestUploadLimiter_WaitForDrain(t *testing.T) {
	l := NewUploadLimiter(2, time.Second)
	l.TryAcquire()

	short, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := l.WaitForDrain(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForDrain with held slot = %v, want deadline exceeded", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		l.Release()
	}()
	ctx, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	if err := l.WaitForDrain(ctx); err != nil {
		t.Errorf("WaitForDrain after release = %v", err)
	}
}
