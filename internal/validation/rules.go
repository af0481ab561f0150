// Package validation holds the field rules every transaction and settings
// write must pass. Each rule is a named pattern plus the range checks a
// regular expression cannot express.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"fintrack/internal/core"
)

const (
	MinDescriptionLength = 3
	MaxDescriptionLength = 100

	maxAmountCents    = 999_999_00
	minBudgetCapCents = 1_00
	maxBudgetCapCents = 1_000_000_00
)

var (
	consecutiveSpacePattern = regexp.MustCompile(`\s{2,}`)
	wordPattern             = regexp.MustCompile(`\w+`)
	amountPattern           = regexp.MustCompile(`^(0|[1-9]\d*)(\.\d{2})?$`)
	datePattern             = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])$`)
	categoryPattern         = regexp.MustCompile(`^[A-Za-z]+(?:[ -][A-Za-z]+)*$`)
	budgetCapPattern        = regexp.MustCompile(`^(0|[1-9]\d*)(\.\d{1,2})?$`)
	currencyCodePattern     = regexp.MustCompile(`^[A-Z]{3}$`)
)

var (
	ErrDescriptionRequired     = errors.New("description is required")
	ErrDescriptionPadded       = errors.New("description cannot start or end with spaces")
	ErrDescriptionSpacing      = errors.New("description cannot contain consecutive spaces")
	ErrDescriptionRepeatedWord = errors.New("description cannot repeat the same word twice in a row")
	ErrDescriptionLength       = fmt.Errorf("description must be between %d and %d characters", MinDescriptionLength, MaxDescriptionLength)

	ErrAmountRequired = errors.New("amount is required")
	ErrAmountFormat   = errors.New("amount must be a number with no leading zeros and exactly two decimals if any (e.g. 12 or 12.50)")
	ErrAmountTooLarge = errors.New("amount cannot exceed 999,999")
	ErrAmountZero     = errors.New("amount must be greater than zero")

	ErrDateRequired = errors.New("date is required")
	ErrDateFormat   = errors.New("date must be a valid YYYY-MM-DD date")
	ErrDateTooLate  = errors.New("date cannot be more than 1 year in the future")
	ErrDateTooEarly = errors.New("date cannot be more than 10 years in the past")

	ErrCategoryRequired = errors.New("category is required")
	ErrCategoryFormat   = errors.New("category can only contain letters separated by single spaces or hyphens")

	ErrBudgetCapRequired = errors.New("budget cap is required")
	ErrBudgetCapFormat   = errors.New("budget cap must be a positive number with at most two decimals")
	ErrBudgetCapRange    = errors.New("budget cap must be between 1 and 1,000,000")

	ErrCurrenciesEmpty = errors.New("at least one currency is required")
	ErrCurrencyCode    = errors.New("currency code must be three upper-case letters")
	ErrCurrencyRate    = errors.New("currency rate must be greater than zero")
	ErrCurrencyBase    = errors.New("one currency must have a rate of exactly 1")
)

// ValidateDescription checks a raw description as typed by the user.
func ValidateDescription(s string) error {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ErrDescriptionRequired
	}
	if trimmed != s {
		return ErrDescriptionPadded
	}
	if consecutiveSpacePattern.MatchString(s) {
		return ErrDescriptionSpacing
	}
	if hasRepeatedWord(s) {
		return ErrDescriptionRepeatedWord
	}
	if n := utf8.RuneCountInString(trimmed); n < MinDescriptionLength || n > MaxDescriptionLength {
		return ErrDescriptionLength
	}
	return nil
}

// hasRepeatedWord reports whether a word is followed, across whitespace only,
// by the same word ignoring case ("lunch Lunch").
func hasRepeatedWord(s string) bool {
	locs := wordPattern.FindAllStringIndex(s, -1)
	for i := 1; i < len(locs); i++ {
		prev, cur := locs[i-1], locs[i]
		if strings.TrimSpace(s[prev[1]:cur[0]]) != "" {
			continue
		}
		if strings.EqualFold(s[prev[0]:prev[1]], s[cur[0]:cur[1]]) {
			return true
		}
	}
	return false
}

// ValidateAmount checks a monetary amount string.
func ValidateAmount(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrAmountRequired
	}
	if !amountPattern.MatchString(s) {
		return ErrAmountFormat
	}
	cents, err := core.ParseCents(s)
	if err != nil {
		return ErrAmountFormat
	}
	if cents > maxAmountCents {
		return ErrAmountTooLarge
	}
	if cents == 0 {
		return ErrAmountZero
	}
	return nil
}

// ValidateCategory checks a category label.
func ValidateCategory(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrCategoryRequired
	}
	if !categoryPattern.MatchString(s) {
		return ErrCategoryFormat
	}
	return nil
}

// ValidateBudgetCap checks the budget cap entered in settings.
func ValidateBudgetCap(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrBudgetCapRequired
	}
	if !budgetCapPattern.MatchString(s) {
		return ErrBudgetCapFormat
	}
	cents, err := core.ParseCents(s)
	if err != nil {
		return ErrBudgetCapFormat
	}
	if cents < minBudgetCapCents || cents > maxBudgetCapCents {
		return ErrBudgetCapRange
	}
	return nil
}

// ValidateCurrencies checks the exchange-rate table.
func ValidateCurrencies(rates map[string]float64) error {
	if len(rates) == 0 {
		return ErrCurrenciesEmpty
	}
	hasBase := false
	for code, rate := range rates {
		if !currencyCodePattern.MatchString(code) {
			return fmt.Errorf("%w: %q", ErrCurrencyCode, code)
		}
		if !(rate > 0) {
			return fmt.Errorf("%w: %s", ErrCurrencyRate, code)
		}
		if rate == 1 {
			hasBase = true
		}
	}
	if !hasBase {
		return ErrCurrencyBase
	}
	return nil
}

// ValidateDate checks a date string against the wall clock.
func ValidateDate(s string) error {
	return std.ValidateDate(s)
}

func validateDateAt(s string, now time.Time) error {
	if strings.TrimSpace(s) == "" {
		return ErrDateRequired
	}
	if !datePattern.MatchString(s) {
		return ErrDateFormat
	}
	date, err := core.ParseDate(s)
	if err != nil {
		return ErrDateFormat
	}
	today := core.Today(now)
	if date.After(today.AddDate(1, 0, 0)) {
		return ErrDateTooLate
	}
	if date.Before(today.AddDate(-10, 0, 0)) {
		return ErrDateTooEarly
	}
	return nil
}
