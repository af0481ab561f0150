package validation

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// Field names used as keys in FieldErrors.
const (
	FieldDescription = "description"
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldDate        = "date"
	FieldBudgetCap   = "budgetCap"
	FieldCurrencies  = "currencies"
)

// Fields is the raw, string-typed form of a transaction as a form submits it.
type Fields struct {
	Description string
	Amount      string
	Category    string
	Date        string
}

// FieldErrors maps a field name to the reason it was rejected. A field with
// no entry is valid.
type FieldErrors map[string]string

// Valid reports whether no field was rejected.
func (fe FieldErrors) Valid() bool {
	return len(fe) == 0
}

// Err returns nil for a valid result and an *Error otherwise.
func (fe FieldErrors) Err() error {
	if fe.Valid() {
		return nil
	}
	return &Error{Fields: fe}
}

// Error carries per-field rejections back to the caller.
type Error struct {
	Fields FieldErrors
}

func (e *Error) Error() string {
	keys := e.FieldNames()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldNames returns the rejected field names in sorted order.
func (e *Error) FieldNames() []string {
	keys := slices.Collect(maps.Keys(e.Fields))
	slices.Sort(keys)
	return keys
}

// Validator runs the rule set against an injectable clock. Only the date
// window depends on it.
type Validator struct {
	now func() time.Time
}

var std = New(nil)

// New returns a Validator reading the current time from now, or from the
// wall clock when now is nil.
func New(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

// ValidateDate checks format and the [today-10y, today+1y] window.
func (v *Validator) ValidateDate(s string) error {
	return validateDateAt(s, v.now())
}

// ValidateTransaction runs every field rule and collects the failures.
func (v *Validator) ValidateTransaction(f Fields) FieldErrors {
	errs := FieldErrors{}
	if err := ValidateDescription(f.Description); err != nil {
		errs[FieldDescription] = err.Error()
	}
	if err := ValidateAmount(f.Amount); err != nil {
		errs[FieldAmount] = err.Error()
	}
	if err := v.ValidateDate(f.Date); err != nil {
		errs[FieldDate] = err.Error()
	}
	if err := ValidateCategory(f.Category); err != nil {
		errs[FieldCategory] = err.Error()
	}
	return errs
}

// ValidateTransaction runs every field rule against the wall clock.
func ValidateTransaction(f Fields) FieldErrors {
	return std.ValidateTransaction(f)
}
