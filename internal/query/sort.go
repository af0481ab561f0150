package query

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"fintrack/internal/core"
)

// SortKey names an ordering of the transaction list.
type SortKey string

const (
	SortDateDesc        SortKey = "date-desc"
	SortDateAsc         SortKey = "date-asc"
	SortAmountAsc       SortKey = "amount-asc"
	SortAmountDesc      SortKey = "amount-desc"
	SortDescriptionAsc  SortKey = "description-asc"
	SortDescriptionDesc SortKey = "description-desc"
)

// SortKeys lists every supported key, default first.
func SortKeys() []SortKey {
	return []SortKey{SortDateDesc, SortDateAsc, SortAmountAsc, SortAmountDesc, SortDescriptionAsc, SortDescriptionDesc}
}

// ParseSortKey maps user input to a key, falling back to SortDateDesc.
func ParseSortKey(s string) SortKey {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(SortKeys(), k) {
		return k
	}
	return SortDateDesc
}

// Sort returns a sorted copy of records. Unknown keys sort by date,
// newest first. The sort is stable, so equal elements keep insertion order.
func Sort(records []core.Transaction, key SortKey) []core.Transaction {
	out := slices.Clone(records)

	switch key {
	case SortDateAsc:
		slices.SortStableFunc(out, compareDate)
	case SortAmountAsc:
		slices.SortStableFunc(out, compareAmount)
	case SortAmountDesc:
		slices.SortStableFunc(out, reverse(compareAmount))
	case SortDescriptionAsc, SortDescriptionDesc:
		c := collate.New(language.Und, collate.IgnoreCase)
		byDesc := func(a, b core.Transaction) int { return c.CompareString(a.Description, b.Description) }
		if key == SortDescriptionDesc {
			byDesc = reverse(byDesc)
		}
		slices.SortStableFunc(out, byDesc)
	default:
		slices.SortStableFunc(out, reverse(compareDate))
	}
	return out
}

// compareDate orders by calendar value. For valid YYYY-MM-DD strings this is
// also the lexical order, but rolled-over days (2025-02-30) only sort right
// after parsing. Unparseable dates sort first.
func compareDate(a, b core.Transaction) int {
	return calendarTime(a).Compare(calendarTime(b))
}

func calendarTime(t core.Transaction) time.Time {
	d, err := t.CalendarDate()
	if err != nil {
		return time.Time{}
	}
	return d
}

func compareAmount(a, b core.Transaction) int {
	return cmp.Compare(a.Amount.Cents, b.Amount.Cents)
}

func reverse(f func(a, b core.Transaction) int) func(a, b core.Transaction) int {
	return func(a, b core.Transaction) int { return f(b, a) }
}
