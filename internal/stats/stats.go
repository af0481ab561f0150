// Package stats derives budget statistics from a snapshot of transactions.
package stats

import (
	"time"

	"fintrack/internal/core"
)

// TrailingDays is the length of the trailing spend window, today included.
const TrailingDays = 7

// Snapshot is the derived view shown next to the transaction list.
type Snapshot struct {
	TotalCount  int
	TotalSpent  core.Money
	ByCategory  []core.CategoryAmount // first-seen order
	TopCategory string
	Last7Days   core.Money
	BudgetCap   core.Money
	Remaining   core.Money // may be negative
	PercentUsed float64    // clamped to at most 100
	Overspent   bool
}

// Compute aggregates records against budgetCap in a single pass. Amounts are summed
// as-is; the sign convention belongs to the caller.
func Compute(records []core.Transaction, budgetCap core.Money, now time.Time) Snapshot {
	today := core.Today(now)
	windowStart := today.AddDate(0, 0, -(TrailingDays - 1))

	snap := Snapshot{
		TotalCount:  len(records),
		TopCategory: core.TopCategoryNone,
		BudgetCap:   budgetCap,
	}

	index := make(map[string]int)
	for _, r := range records {
		snap.TotalSpent = snap.TotalSpent.Add(r.Amount)

		i, seen := index[r.Category]
		if !seen {
			i = len(snap.ByCategory)
			index[r.Category] = i
			snap.ByCategory = append(snap.ByCategory, core.CategoryAmount{Name: r.Category})
		}
		snap.ByCategory[i].Amount = snap.ByCategory[i].Amount.Add(r.Amount)

		if d, err := r.CalendarDate(); err == nil && !d.Before(windowStart) && !d.After(today) {
			snap.Last7Days = snap.Last7Days.Add(r.Amount)
		}
	}

	// Strict comparison keeps the first-seen category on ties.
	for i, c := range snap.ByCategory {
		if i == 0 || c.Amount.Cents > snap.ByCategory[index[snap.TopCategory]].Amount.Cents {
			snap.TopCategory = c.Name
		}
	}

	snap.Remaining = budgetCap.Sub(snap.TotalSpent)
	snap.Overspent = snap.TotalSpent.Cents > budgetCap.Cents
	if budgetCap.Cents > 0 {
		snap.PercentUsed = min(float64(snap.TotalSpent.Cents)*100/float64(budgetCap.Cents), 100)
	}
	return snap
}
