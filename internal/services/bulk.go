package services

import (
	"context"
	"fmt"
	"slices"

	"fintrack/internal/core"
	"fintrack/internal/events"
	applog "fintrack/internal/log"
)

// ReplaceAll swaps the whole sequence for records. Every record is validated
// first; one bad record rejects the batch and leaves the store unchanged.
func (s *RecordStore) ReplaceAll(ctx context.Context, records []core.Transaction) error {
	prepared, err := s.prepareBatch(records)
	if err != nil {
		return err
	}

	s.mu.Lock()
	err = s.commitRecords(ctx, prepared)
	if err == nil {
		s.markSeen(prepared)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.slogger.LogBulk(ctx, applog.OpReplace, len(prepared))
	s.notify(ctx, events.OpReplaced, "", len(prepared))
	return nil
}

// ImportMany merges records into the sequence: a record whose ID is already
// stored replaces it in place, any other record is appended in payload order.
// Validation is all-or-nothing as in ReplaceAll.
func (s *RecordStore) ImportMany(ctx context.Context, records []core.Transaction) (int, error) {
	prepared, err := s.prepareBatch(records)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	next := slices.Clone(s.records)
	pos := make(map[string]int, len(next))
	for i, r := range next {
		pos[r.ID] = i
	}
	for _, r := range prepared {
		if i, ok := pos[r.ID]; ok {
			next[i] = r
			continue
		}
		pos[r.ID] = len(next)
		next = append(next, r)
	}
	err = s.commitRecords(ctx, next)
	if err == nil {
		s.markSeen(prepared)
	}
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}

	s.slogger.LogBulk(ctx, applog.OpImport, len(prepared))
	s.notify(ctx, events.OpImported, "", len(prepared))
	return len(prepared), nil
}

// prepareBatch normalizes and validates a bulk payload. Missing timestamps are
// filled with the current time.
func (s *RecordStore) prepareBatch(records []core.Transaction) ([]core.Transaction, error) {
	now := s.now()
	out := make([]core.Transaction, 0, len(records))
	ids := make(map[string]struct{}, len(records))
	for i, r := range records {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: record %d has no id", core.ErrMalformedImport, i)
		}
		if _, dup := ids[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", core.ErrMalformedImport, r.ID)
		}
		ids[r.ID] = struct{}{}

		r.Description = normalizeDescription(r.Description)
		if err := s.validator.ValidateTransaction(fieldsOf(r)).Err(); err != nil {
			return nil, fmt.Errorf("%w: record %d (%s): %w", core.ErrMalformedImport, i, r.ID, err)
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = r.CreatedAt
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *RecordStore) markSeen(records []core.Transaction) {
	for _, r := range records {
		s.seenIDs[r.ID] = struct{}{}
	}
}
