package services

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/validation"
)

func TestCreateThenList(t *testing.T) {
	blobs := newBlobs()
	s := newTestStore(t, blobs)

	tx := mustCreate(t, s, CreateInput{Description: "  Coffee   beans ", Amount: "4.50", Category: "Food", Date: today()})

	if tx.ID != "tx-001" {
		t.Fatalf("unexpected id %q", tx.ID)
	}
	if tx.Description != "Coffee beans" {
		t.Fatalf("description not normalized: %q", tx.Description)
	}
	if tx.Amount.Cents != 450 || tx.Category != "Food" || tx.Date != today() {
		t.Fatalf("unexpected record %+v", tx)
	}
	if !tx.CreatedAt.Equal(testNow) || !tx.UpdatedAt.Equal(testNow) {
		t.Fatalf("timestamps not set: %+v", tx)
	}

	list := s.List()
	if len(list) != 1 || list[0] != tx {
		t.Fatalf("unexpected list %+v", list)
	}

	// The normalized record passes validation again.
	v := validation.New(func() time.Time { return testNow })
	if errs := v.ValidateTransaction(fieldsOf(list[0])); !errs.Valid() {
		t.Fatalf("stored record fails re-validation: %v", errs)
	}

	var persisted []core.Transaction
	data, _ := blobs.Get(context.Background(), core.KeyTransactions)
	if err := json.Unmarshal(data, &persisted); err != nil || len(persisted) != 1 || persisted[0].ID != tx.ID {
		t.Fatalf("unexpected durable copy %s (err=%v)", data, err)
	}
}

func TestCreateIDsAreUnique(t *testing.T) {
	s, err := Open(context.Background(), newBlobs(), WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		tx := mustCreate(t, s, CreateInput{Description: "Coffee", Amount: "1.00", Category: "Food", Date: today()})
		if seen[tx.ID] {
			t.Fatalf("duplicate id %q", tx.ID)
		}
		seen[tx.ID] = true
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	blobs := newBlobs()
	s := newTestStore(t, blobs)

	_, err := s.Create(context.Background(), CreateInput{Description: "lunch lunch", Amount: "12.5", Category: "Food123", Date: "2025-13-01"})
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validation.Error, got %v", err)
	}
	if len(verr.Fields) != 4 {
		t.Fatalf("expected four field errors, got %v", verr.Fields)
	}
	if s.Len() != 0 || blobs.puts != 0 {
		t.Fatalf("invalid create must not mutate or persist")
	}
}

func TestCreateDuplicateIDPanics(t *testing.T) {
	s := newTestStore(t, newBlobs(), WithIDGenerator(func() (string, error) { return "same", nil }))
	mustCreate(t, s, CreateInput{Description: "Coffee", Amount: "1.00", Category: "Food", Date: today()})

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on duplicate id")
		}
	}()
	_, _ = s.Create(context.Background(), CreateInput{Description: "Coffee", Amount: "1.00", Category: "Food", Date: today()})
}

func TestUpdateMergesFields(t *testing.T) {
	s := newTestStore(t, newBlobs())
	first := mustCreate(t, s, CreateInput{Description: "Coffee", Amount: "4.50", Category: "Food", Date: today()})
	mustCreate(t, s, CreateInput{Description: "Bus ticket", Amount: "2.00", Category: "Transport", Date: today()})

	later := testNow.Add(time.Hour)
	s.now = func() time.Time { return later }

	got, err := s.Update(context.Background(), first.ID, UpdateInput{Amount: ptr("5.00"), Description: ptr("Flat  white")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Amount.Cents != 500 || got.Description != "Flat white" || got.Category != "Food" {
		t.Fatalf("unexpected merge %+v", got)
	}
	if !got.CreatedAt.Equal(testNow) || !got.UpdatedAt.Equal(later) {
		t.Fatalf("unexpected timestamps %+v", got)
	}
	if list := s.List(); list[0].ID != first.ID || list[0] != got {
		t.Fatalf("record moved or not replaced: %+v", list)
	}
}

func TestUpdateUnknownIDLeavesStoreUnchanged(t *testing.T) {
	s := newTestStore(t, newBlobs())
	mustCreate(t, s, CreateInput{Description: "Coffee", Amount: "4.50", Category: "Food", Date: today()})
	before := s.List()

	_, err := s.Update(context.Background(), "missing", UpdateInput{Amount: ptr("1.00")})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !reflect.DeepEqual(before, s.List()) {
		t.Fatalf("store changed after failed update")
	}
}

func TestUpdateInvalidLeavesRecordUnchanged(t *testing.T) {
	s := newTestStore(t, newBlobs())
	tx := mustCreate(t, s, CreateInput{Description: "Coffee", Amount: "4.50", Category: "Food", Date: today()})

	_, err := s.Update(context.Background(), tx.ID, UpdateInput{Amount: ptr("0")})
	var verr *validation.Error
	if !errors.As(err, &verr) || verr.Fields[validation.FieldAmount] == "" {
		t.Fatalf("expected amount validation error, got %v", err)
	}
	if got, _ := s.Get(tx.ID); got != tx {
		t.Fatalf("record changed: %+v", got)
	}
}

func TestRemoveTwice(t *testing.T) {
	s := newTestStore(t, newBlobs())
	tx := mustCreate(t, s, CreateInput{Description: "Coffee", Amount: "4.50", Category: "Food", Date: today()})

	ok, err := s.Remove(context.Background(), tx.ID)
	if err != nil || !ok {
		t.Fatalf("first remove: ok=%v err=%v", ok, err)
	}
	ok, err = s.Remove(context.Background(), tx.ID)
	if err != nil || ok {
		t.Fatalf("second remove: ok=%v err=%v", ok, err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store")
	}
}

func TestListReturnsCopy(t *testing.T) {
	s := newTestStore(t, newBlobs())
	mustCreate(t, s, CreateInput{Description: "Coffee", Amount: "4.50", Category: "Food", Date: today()})

	list := s.List()
	list[0].Description = "Changed"
	if s.List()[0].Description != "Coffee" {
		t.Fatalf("List exposed internal state")
	}
}

func TestPersistenceFailureRollsBack(t *testing.T) {
	blobs := newBlobs()
	s := newTestStore(t, blobs)
	tx := mustCreate(t, s, CreateInput{Description: "Coffee", Amount: "4.50", Category: "Food", Date: today()})
	before := s.List()

	blobs.failWrites = true

	if _, err := s.Create(context.Background(), CreateInput{Description: "Tea pot", Amount: "3.00", Category: "Home", Date: today()}); !errors.Is(err, errDisk) {
		t.Fatalf("expected storage error on create, got %v", err)
	}
	if _, err := s.Update(context.Background(), tx.ID, UpdateInput{Amount: ptr("9.00")}); !errors.Is(err, errDisk) {
		t.Fatalf("expected storage error on update, got %v", err)
	}
	if _, err := s.Remove(context.Background(), tx.ID); !errors.Is(err, errDisk) {
		t.Fatalf("expected storage error on remove, got %v", err)
	}
	if err := s.Clear(context.Background()); !errors.Is(err, errDisk) {
		t.Fatalf("expected storage error on clear, got %v", err)
	}
	if _, err := s.UpdateSettings(context.Background(), SettingsInput{BudgetCap: ptr("50")}); !errors.Is(err, errDisk) {
		t.Fatalf("expected storage error on settings, got %v", err)
	}

	if !reflect.DeepEqual(before, s.List()) {
		t.Fatalf("memory diverged from durable copy: %+v", s.List())
	}
	if s.Settings().BudgetCap != core.DefaultSettings().BudgetCap {
		t.Fatalf("settings changed despite failed write")
	}
}

func TestReopenLoadsDurableState(t *testing.T) {
	blobs := newBlobs()
	s := newTestStore(t, blobs)
	mustCreate(t, s, CreateInput{Description: "Coffee", Amount: "4.50", Category: "Food", Date: today()})
	if _, err := s.UpdateSettings(context.Background(), SettingsInput{BudgetCap: ptr("250.50")}); err != nil {
		t.Fatalf("settings: %v", err)
	}

	reopened := newTestStore(t, blobs)
	if !reflect.DeepEqual(s.List(), reopened.List()) {
		t.Fatalf("records not reloaded: %+v", reopened.List())
	}
	if reopened.Settings().BudgetCap.Cents != 250_50 {
		t.Fatalf("settings not reloaded: %+v", reopened.Settings())
	}
}

func TestClear(t *testing.T) {
	blobs := newBlobs()
	s := newTestStore(t, blobs)
	mustCreate(t, s, CreateInput{Description: "Coffee", Amount: "4.50", Category: "Food", Date: today()})

	if err := s.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store")
	}
	if _, err := blobs.Get(context.Background(), core.KeyTransactions); err == nil {
		t.Fatalf("durable copy not removed")
	}
}

func TestNotifierReceivesCommittedChanges(t *testing.T) {
	n := &recordingNotifier{err: errors.New("broker down")}
	s := newTestStore(t, newBlobs(), WithNotifier(n))

	tx := mustCreate(t, s, CreateInput{Description: "Coffee", Amount: "4.50", Category: "Food", Date: today()})
	if _, err := s.Update(context.Background(), tx.ID, UpdateInput{Category: ptr("Drinks")}); err != nil {
		t.Fatalf("update should not fail on notifier error: %v", err)
	}
	_, _ = s.Update(context.Background(), tx.ID, UpdateInput{Category: ptr("Drinks1")}) // rejected, no event
	_, _ = s.Remove(context.Background(), "missing")                                     // nothing removed, no event
	_, _ = s.Remove(context.Background(), tx.ID)

	want := []string{events.OpCreated, events.OpUpdated, events.OpDeleted}
	if got := n.ops(); !reflect.DeepEqual(got, want) {
		t.Fatalf("ops = %v, want %v", got, want)
	}
}

func TestStoreStats(t *testing.T) {
	s := newTestStore(t, newBlobs())
	if _, err := s.UpdateSettings(context.Background(), SettingsInput{BudgetCap: ptr("10.00")}); err != nil {
		t.Fatalf("settings: %v", err)
	}
	mustCreate(t, s, CreateInput{Description: "Coffee", Amount: "4.50", Category: "Food", Date: today()})
	mustCreate(t, s, CreateInput{Description: "Coffee", Amount: "4.50", Category: "Food", Date: daysAgo(8)})

	snap := s.Stats()
	if snap.TotalSpent.Cents != 900 || snap.Last7Days.Cents != 450 || snap.Remaining.Cents != 100 || snap.PercentUsed != 90 {
		t.Fatalf("unexpected stats %+v", snap)
	}
}
