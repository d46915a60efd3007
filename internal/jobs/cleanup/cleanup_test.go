package cleanup

import (
	"context"
	"fmt"
	"testing"
	"time"
)

type stubDeactivator struct {
	rows    int64
	err     error
	cutoffs []time.Time
}

func (s *stubDeactivator) DeactivateExpired(_ context.Context, cutoff time.Time) (int64, error) {
	s.cutoffs = append(s.cutoffs, cutoff)
	return s.rows, s.err
}

func TestRunSweepsWithCurrentCutoff(t *testing.T) {
	store := &stubDeactivator{rows: 3}
	job := New(store, time.Hour, nil)

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return fixed }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(store.cutoffs) != 1 || !store.cutoffs[0].Equal(fixed) {
		t.Fatalf("unexpected cutoffs: %v", store.cutoffs)
	}
}

func TestRunPropagatesStoreError(t *testing.T) {
	store := &stubDeactivator{err: fmt.Errorf("connection refused")}
	job := New(store, time.Hour, nil)

	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRunRequiresStore(t *testing.T) {
	job := New(nil, time.Hour, nil)
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error for nil store")
	}
}
