package worker

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"

	"fintrack/internal/events"
	applog "fintrack/internal/log"
)

// Formatter renders one change for output.
type Formatter func(*events.Change) string

// ChangeWorker handles change messages consumed from AMQP: it writes each
// known change to out and keeps per-operation counts.
type ChangeWorker struct {
	out    io.Writer
	format Formatter
	logger *applog.Logger

	mu     sync.Mutex
	counts map[string]int
}

func NewChangeWorker(out io.Writer, format Formatter, logger *applog.Logger) *ChangeWorker {
	if format == nil {
		format = plainFormat
	}
	if logger == nil {
		logger = applog.Default()
	}
	return &ChangeWorker{
		out:    out,
		format: format,
		logger: logger.WithComponent(applog.ComponentEvents),
		counts: map[string]int{},
	}
}

func plainFormat(c *events.Change) string {
	return fmt.Sprintf("%s %s %d %s", c.Op, c.ID, c.Count, c.Timestamp.Format("15:04:05"))
}

// Handler adapts HandleChange to events.Client.Consume.
func (w *ChangeWorker) Handler(ctx context.Context) func(*events.Change) error {
	return func(c *events.Change) error {
		return w.HandleChange(ctx, c)
	}
}

// HandleChange processes a single change message. Unknown operations are
// logged and dropped; a write failure is returned so the message is requeued.
func (w *ChangeWorker) HandleChange(ctx context.Context, msg *events.Change) error {
	switch msg.Op {
	case events.OpCreated, events.OpUpdated, events.OpDeleted:
		if msg.ID == "" {
			w.logger.WarnContext(ctx, "Dropping change without transaction id", applog.FieldOperation, msg.Op)
			return nil
		}
	case events.OpImported, events.OpReplaced, events.OpCleared, events.OpSettings:
	default:
		w.logger.WarnContext(ctx, "Dropping change with unknown operation", applog.FieldOperation, msg.Op)
		return nil
	}

	if _, err := fmt.Fprintln(w.out, w.format(msg)); err != nil {
		return fmt.Errorf("write change: %w", err)
	}

	w.mu.Lock()
	w.counts[msg.Op]++
	w.mu.Unlock()

	w.logger.DebugContext(ctx, "Processed change message",
		applog.FieldOperation, msg.Op,
		applog.FieldTransactionID, msg.ID,
		applog.FieldCount, msg.Count)
	return nil
}

// Counts returns a copy of the per-operation counters.
func (w *ChangeWorker) Counts() map[string]int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return maps.Clone(w.counts)
}

// Summary renders the counters as "op=n" pairs in operation order.
func (w *ChangeWorker) Summary() string {
	counts := w.Counts()
	if len(counts) == 0 {
		return "no changes"
	}
	parts := make([]string, 0, len(counts))
	for _, op := range slices.Sorted(maps.Keys(counts)) {
		parts = append(parts, fmt.Sprintf("%s=%d", op, counts[op]))
	}
	return strings.Join(parts, " ")
}
