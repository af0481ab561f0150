package services

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"

	"fintrack/internal/core"
	"fintrack/internal/events"
	applog "fintrack/internal/log"
	"fintrack/internal/validation"
)

// SettingsInput holds the settings to change; nil fields are left untouched.
type SettingsInput struct {
	BudgetCap  *string
	Currencies map[string]float64
}

// Settings returns a copy of the current settings.
func (s *RecordStore) Settings() core.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Clone()
}

// UpdateSettings validates and persists new settings. Field failures come
// back as a *validation.Error keyed by budgetCap and currencies.
func (s *RecordStore) UpdateSettings(ctx context.Context, in SettingsInput) (core.Settings, error) {
	s.mu.Lock()
	next, err := s.applySettings(ctx, in)
	s.mu.Unlock()
	if err != nil {
		return core.Settings{}, err
	}

	s.logger.InfoContext(ctx, "Settings updated",
		applog.FieldOperation, applog.OpSettings,
		"budget_cap_cents", next.BudgetCap.Cents,
		"currencies", len(next.Currencies))
	s.notify(ctx, events.OpSettings, "", 0)
	return next.Clone(), nil
}

// applySettings merges in over the current settings, persists the result and
// assigns it. Callers hold s.mu.
func (s *RecordStore) applySettings(ctx context.Context, in SettingsInput) (core.Settings, error) {
	next := s.settings.Clone()

	errs := validation.FieldErrors{}
	if in.BudgetCap != nil {
		if err := validation.ValidateBudgetCap(*in.BudgetCap); err != nil {
			errs[validation.FieldBudgetCap] = err.Error()
		} else {
			cents, err := core.ParseCents(*in.BudgetCap)
			if err != nil {
				return core.Settings{}, err
			}
			next.BudgetCap = core.Money{Cents: cents}
		}
	}
	if in.Currencies != nil {
		if err := validation.ValidateCurrencies(in.Currencies); err != nil {
			errs[validation.FieldCurrencies] = err.Error()
		} else {
			next.Currencies = maps.Clone(in.Currencies)
		}
	}
	if err := errs.Err(); err != nil {
		return core.Settings{}, err
	}

	data, err := json.Marshal(next)
	if err != nil {
		return core.Settings{}, fmt.Errorf("encode settings: %w", err)
	}
	if err := s.blobs.Put(ctx, core.KeySettings, data); err != nil {
		s.slogger.LogError(ctx, "Failed to persist settings", err, applog.ErrorTypeDatabase, applog.OpSettings, nil)
		return core.Settings{}, fmt.Errorf("persist settings: %w", err)
	}
	s.settings = next
	return next, nil
}
