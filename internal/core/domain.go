package core

import (
	"errors"
	"fmt"
	"maps"
	"strconv"
	"time"
)

// DateLayout is the only accepted textual form of a transaction date.
const DateLayout = "2006-01-02"

// Durable keys under which the record store mirrors its state.
const (
	KeyTransactions = "transactions"
	KeySettings     = "settings"
)

// TopCategoryNone is reported as the top category of an empty record set.
const TopCategoryNone = "None"

type (
	Money struct {
		Cents int64
	}

	// Transaction is the single persisted entity of the tracker.
	Transaction struct {
		ID          string    `json:"id"`
		Description string    `json:"description"`
		Amount      Money     `json:"amount"`
		Category    string    `json:"category"`
		Date        string    `json:"date"` // YYYY-MM-DD
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	// Settings is the configuration singleton persisted next to the records.
	Settings struct {
		BudgetCap  Money              `json:"budgetCap"`
		Currencies map[string]float64 `json:"currencies"`
	}
)

var (
	ErrNotFound        = errors.New("transaction not found")
	ErrMalformedImport = errors.New("malformed import")
	ErrInvalidPattern  = errors.New("invalid pattern")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
)

// DefaultSettings returns the settings used when none have been persisted yet.
func DefaultSettings() Settings {
	return Settings{
		BudgetCap: Money{Cents: 1000_00},
		Currencies: map[string]float64{
			"USD": 1.0,
			"EUR": 0.92,
			"GBP": 0.79,
		},
	}
}

// Clone returns a deep copy so callers cannot mutate the currency table.
func (s Settings) Clone() Settings {
	out := Settings{BudgetCap: s.BudgetCap}
	if s.Currencies != nil {
		out.Currencies = maps.Clone(s.Currencies)
	}
	return out
}

// CalendarDate parses the record date. See ParseDate.
func (t Transaction) CalendarDate() (time.Time, error) {
	return ParseDate(t.Date)
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight calendar value.
//
// Only the shape is checked here: a day past the end of its month rolls over
// into the following month (2025-02-30 becomes 2025-03-02), the same way a
// lenient calendar would read it. Range rules live in the validation package.
func ParseDate(s string) (time.Time, error) {
	if len(s) != len(DateLayout) || s[4] != '-' || s[7] != '-' {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	digits := s[0:4] + s[5:7] + s[8:10]
	for _, c := range digits {
		if c < '0' || c > '9' {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
	}
	year, _ := strconv.Atoi(s[0:4])
	month, _ := strconv.Atoi(s[5:7])
	day, _ := strconv.Atoi(s[8:10])
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// Today returns the calendar day of now as a UTC midnight value, comparable
// with the output of ParseDate.
func Today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a calendar value in DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
