package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/blob"
	"fintrack/internal/core"
	"fintrack/internal/events"
	applog "fintrack/internal/log"
	"fintrack/internal/stats"
	"fintrack/internal/validation"
)

// Notifier receives committed mutations. Failures are logged, never returned
// to the caller of the mutation.
type Notifier interface {
	Notify(ctx context.Context, change events.Change) error
}

// IDGenerator returns a fresh transaction ID.
type IDGenerator func() (string, error)

// NewUUIDv7 generates time-ordered IDs: a millisecond timestamp followed by
// random bits.
func NewUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

type (
	// CreateInput holds raw form values for a new transaction.
	CreateInput struct {
		Description string
		Amount      string
		Category    string
		Date        string
	}

	// UpdateInput holds the fields to change; nil leaves a field untouched.
	UpdateInput struct {
		Description *string
		Amount      *string
		Category    *string
		Date        *string
	}
)

// RecordStore owns the ordered transaction sequence and the settings
// singleton, and mirrors both into a blob.Store after every mutation.
//
// A mutation whose durable write fails is rolled back in memory, so the
// in-memory state never runs ahead of the durable copy.
type RecordStore struct {
	mu        sync.Mutex
	blobs     blob.Store
	validator *validation.Validator
	now       func() time.Time
	newID     IDGenerator
	notifier  Notifier
	logger    *applog.Logger
	slogger   *applog.StructuredLogger
	defaults  core.Settings

	records  []core.Transaction
	settings core.Settings
	seenIDs  map[string]struct{}
}

// Option configures a RecordStore.
type Option func(*RecordStore)

// WithClock overrides the time source used for timestamps, the date window
// and statistics.
func WithClock(now func() time.Time) Option {
	return func(s *RecordStore) { s.now = now }
}

// WithIDGenerator overrides transaction ID generation.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *RecordStore) { s.newID = gen }
}

// WithNotifier sets the receiver of change events.
func WithNotifier(n Notifier) Option {
	return func(s *RecordStore) { s.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *applog.Logger) Option {
	return func(s *RecordStore) { s.logger = l }
}

// WithDefaultSettings sets the settings used when none are persisted.
func WithDefaultSettings(d core.Settings) Option {
	return func(s *RecordStore) { s.defaults = d.Clone() }
}

// Open builds a store and loads its state from blobs.
func Open(ctx context.Context, blobs blob.Store, opts ...Option) (*RecordStore, error) {
	s := &RecordStore{
		blobs:    blobs,
		now:      time.Now,
		newID:    NewUUIDv7,
		defaults: core.DefaultSettings(),
		seenIDs:  map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = applog.Default()
	}
	s.logger = s.logger.WithComponent(applog.ComponentStore)
	s.slogger = applog.NewStructuredLogger(s.logger)
	s.validator = validation.New(s.now)

	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *RecordStore) load(ctx context.Context) error {
	data, err := s.blobs.Get(ctx, core.KeyTransactions)
	switch {
	case errors.Is(err, blob.ErrNotFound):
	case err != nil:
		return fmt.Errorf("load transactions: %w", err)
	default:
		if err := json.Unmarshal(data, &s.records); err != nil {
			return fmt.Errorf("decode transactions: %w", err)
		}
	}
	for _, r := range s.records {
		s.seenIDs[r.ID] = struct{}{}
	}

	s.settings = s.defaults.Clone()
	data, err = s.blobs.Get(ctx, core.KeySettings)
	switch {
	case errors.Is(err, blob.ErrNotFound):
	case err != nil:
		return fmt.Errorf("load settings: %w", err)
	default:
		var stored core.Settings
		if err := json.Unmarshal(data, &stored); err != nil {
			return fmt.Errorf("decode settings: %w", err)
		}
		if stored.BudgetCap.Cents > 0 {
			s.settings.BudgetCap = stored.BudgetCap
		}
		if len(stored.Currencies) > 0 {
			s.settings.Currencies = stored.Currencies
		}
	}

	s.logger.DebugContext(ctx, "Record store loaded",
		applog.FieldOperation, applog.OpLoad,
		applog.FieldCount, len(s.records))
	return nil
}

// normalizeDescription trims and collapses every whitespace run to one space.
func normalizeDescription(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func fieldsOf(t core.Transaction) validation.Fields {
	return validation.Fields{
		Description: t.Description,
		Amount:      t.Amount.Fixed(),
		Category:    t.Category,
		Date:        t.Date,
	}
}

// Create validates and appends a new transaction.
func (s *RecordStore) Create(ctx context.Context, in CreateInput) (core.Transaction, error) {
	fields := validation.Fields{
		Description: normalizeDescription(in.Description),
		Amount:      in.Amount,
		Category:    in.Category,
		Date:        in.Date,
	}
	if err := s.validator.ValidateTransaction(fields).Err(); err != nil {
		return core.Transaction{}, err
	}
	cents, err := core.ParseCents(fields.Amount)
	if err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	id, err := s.nextID()
	if err != nil {
		s.mu.Unlock()
		return core.Transaction{}, err
	}
	now := s.now()
	tx := core.Transaction{
		ID:          id,
		Description: fields.Description,
		Amount:      core.Money{Cents: cents},
		Category:    fields.Category,
		Date:        fields.Date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.commitRecords(ctx, append(slices.Clone(s.records), tx))
	s.mu.Unlock()
	if err != nil {
		return core.Transaction{}, err
	}

	s.slogger.LogTransactionChanged(ctx, applog.OpCreate, tx.ID, tx.Description, tx.Amount.Cents, tx.Category, tx.Date)
	s.notify(ctx, events.OpCreated, tx.ID, 1)
	return tx, nil
}

// nextID returns an ID never seen by this store. A duplicate means the
// generator is broken, which no caller can recover from.
func (s *RecordStore) nextID() (string, error) {
	id, err := s.newID()
	if err != nil {
		return "", fmt.Errorf("generate transaction id: %w", err)
	}
	if _, dup := s.seenIDs[id]; dup {
		panic(fmt.Sprintf("record store: generated duplicate transaction id %q", id))
	}
	s.seenIDs[id] = struct{}{}
	return id, nil
}

// Update merges the supplied fields over the stored record, keeping its
// position in the sequence.
func (s *RecordStore) Update(ctx context.Context, id string, in UpdateInput) (core.Transaction, error) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return core.Transaction{}, fmt.Errorf("update %s: %w", id, core.ErrNotFound)
	}

	fields := fieldsOf(s.records[idx])
	if in.Description != nil {
		fields.Description = *in.Description
	}
	if in.Amount != nil {
		fields.Amount = *in.Amount
	}
	if in.Category != nil {
		fields.Category = *in.Category
	}
	if in.Date != nil {
		fields.Date = *in.Date
	}
	fields.Description = normalizeDescription(fields.Description)

	if err := s.validator.ValidateTransaction(fields).Err(); err != nil {
		s.mu.Unlock()
		return core.Transaction{}, err
	}
	cents, err := core.ParseCents(fields.Amount)
	if err != nil {
		s.mu.Unlock()
		return core.Transaction{}, err
	}

	tx := s.records[idx]
	tx.Description = fields.Description
	tx.Amount = core.Money{Cents: cents}
	tx.Category = fields.Category
	tx.Date = fields.Date
	tx.UpdatedAt = s.now()

	next := slices.Clone(s.records)
	next[idx] = tx
	err = s.commitRecords(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return core.Transaction{}, err
	}

	s.slogger.LogTransactionChanged(ctx, applog.OpUpdate, tx.ID, tx.Description, tx.Amount.Cents, tx.Category, tx.Date)
	s.notify(ctx, events.OpUpdated, tx.ID, 1)
	return tx, nil
}

// Remove deletes the record with id and reports whether it existed. The
// sequence is persisted either way.
func (s *RecordStore) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	next := slices.Clone(s.records)
	idx := s.indexOf(id)
	if idx >= 0 {
		next = slices.Delete(next, idx, idx+1)
	}
	err := s.commitRecords(ctx, next)
	s.mu.Unlock()
	if err != nil {
		return false, err
	}

	if idx >= 0 {
		s.logger.InfoContext(ctx, "Transaction removed",
			applog.FieldOperation, applog.OpDelete,
			applog.FieldTransactionID, id)
		s.notify(ctx, events.OpDeleted, id, 1)
	}
	return idx >= 0, nil
}

// List returns an independent copy of the sequence in insertion order.
func (s *RecordStore) List() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.records)
}

// Get returns a copy of a single record.
func (s *RecordStore) Get(id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return core.Transaction{}, fmt.Errorf("get %s: %w", id, core.ErrNotFound)
	}
	return s.records[idx], nil
}

// Len returns the number of stored records.
func (s *RecordStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Stats computes the statistics snapshot for the current records and cap.
func (s *RecordStore) Stats() stats.Snapshot {
	s.mu.Lock()
	records := slices.Clone(s.records)
	budgetCap := s.settings.BudgetCap
	s.mu.Unlock()
	return stats.Compute(records, budgetCap, s.now())
}

// Clear empties the sequence and deletes the durable copy.
func (s *RecordStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	prev := s.records
	s.records = nil
	if err := s.blobs.Delete(ctx, core.KeyTransactions); err != nil {
		s.records = prev
		s.mu.Unlock()
		s.slogger.LogError(ctx, "Failed to clear transactions", err, applog.ErrorTypeDatabase, applog.OpClear, nil)
		return fmt.Errorf("clear transactions: %w", err)
	}
	s.mu.Unlock()

	s.slogger.LogBulk(ctx, applog.OpClear, 0)
	s.notify(ctx, events.OpCleared, "", len(prev))
	return nil
}

func (s *RecordStore) indexOf(id string) int {
	return slices.IndexFunc(s.records, func(t core.Transaction) bool { return t.ID == id })
}

// commitRecords swaps in next and persists it, restoring the previous
// sequence when the durable write fails. Callers hold s.mu.
func (s *RecordStore) commitRecords(ctx context.Context, next []core.Transaction) error {
	prev := s.records
	s.records = next
	if err := s.persistRecords(ctx); err != nil {
		s.records = prev
		s.slogger.LogError(ctx, "Failed to persist transactions, change rolled back", err, applog.ErrorTypeDatabase, applog.OpPersist, nil)
		return fmt.Errorf("persist transactions: %w", err)
	}
	return nil
}

func (s *RecordStore) persistRecords(ctx context.Context) error {
	records := s.records
	if records == nil {
		records = []core.Transaction{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}
	return s.blobs.Put(ctx, core.KeyTransactions, data)
}

func (s *RecordStore) notify(ctx context.Context, op, id string, count int) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, *events.NewChange(op, id, count)); err != nil {
		s.slogger.LogWarn(ctx, "Failed to publish change event", err, applog.OpPublish)
	}
}
