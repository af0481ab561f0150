package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"fintrack/internal/blob/memory"
	"fintrack/internal/core"
	"fintrack/internal/events"
	applog "fintrack/internal/log"
)

var (
	testNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	errDisk = errors.New("disk full")
)

func today() string { return core.FormatDate(core.Today(testNow)) }

func daysAgo(n int) string {
	return core.FormatDate(core.Today(testNow).AddDate(0, 0, -n))
}

// flakyBlobs wraps the memory adapter and fails writes on demand.
type flakyBlobs struct {
	*memory.Store
	failWrites bool
	puts       int
}

func (f *flakyBlobs) Put(ctx context.Context, key string, value []byte) error {
	if f.failWrites {
		return errDisk
	}
	f.puts++
	return f.Store.Put(ctx, key, value)
}

func (f *flakyBlobs) Delete(ctx context.Context, key string) error {
	if f.failWrites {
		return errDisk
	}
	return f.Store.Delete(ctx, key)
}

// recordingNotifier keeps every change it receives.
type recordingNotifier struct {
	mu      sync.Mutex
	changes []events.Change
	err     error
}

func (n *recordingNotifier) Notify(_ context.Context, c events.Change) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, c)
	return n.err
}

func (n *recordingNotifier) ops() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.changes))
	for i, c := range n.changes {
		out[i] = c.Op
	}
	return out
}

func sequentialIDs() IDGenerator {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("tx-%03d", n), nil
	}
}

func newTestStore(t *testing.T, blobs *flakyBlobs, opts ...Option) *RecordStore {
	t.Helper()
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(sequentialIDs()),
		WithLogger(applog.Discard()),
	}
	s, err := Open(context.Background(), blobs, append(base, opts...)...)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

func newBlobs() *flakyBlobs {
	return &flakyBlobs{Store: memory.New()}
}

func mustCreate(t *testing.T, s *RecordStore, in CreateInput) core.Transaction {
	t.Helper()
	tx, err := s.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create %+v: %v", in, err)
	}
	return tx
}

func ptr(s string) *string { return &s }
