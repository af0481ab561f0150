// Package query filters, orders and decorates transaction snapshots for
// display. It never mutates its input.
package query

import (
	"fmt"
	"regexp"
	"slices"

	"fintrack/internal/cache"
	"fintrack/internal/core"
)

// DefaultCacheSize is the number of compiled patterns kept by NewEngine.
const DefaultCacheSize = 64

// Engine compiles user patterns and keeps the most recent ones.
type Engine struct {
	patterns *cache.LRUCache[*regexp.Regexp]
}

// NewEngine returns an engine caching up to cacheSize compiled patterns.
func NewEngine(cacheSize int) *Engine {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	return &Engine{patterns: cache.NewLRUCache[*regexp.Regexp](cacheSize)}
}

// Compile returns the compiled form of pattern, case-insensitive unless
// caseSensitive is set. Errors wrap core.ErrInvalidPattern.
func (e *Engine) Compile(pattern string, caseSensitive bool) (*regexp.Regexp, error) {
	expr := pattern
	if !caseSensitive {
		expr = "(?i)" + pattern
	}
	if re, ok := e.patterns.Get(expr); ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidPattern, err)
	}
	e.patterns.Set(expr, re)
	return re, nil
}

// CacheStats exposes pattern cache counters.
func (e *Engine) CacheStats() cache.Stats {
	return e.patterns.Stats()
}

// Search returns the records whose description, amount, category or date
// matches pattern. An empty pattern matches everything.
//
// An invalid pattern is not fatal: Search then returns every record together
// with an error wrapping core.ErrInvalidPattern, so a caller can show the
// full list and flag the pattern.
func (e *Engine) Search(records []core.Transaction, pattern string, caseSensitive bool) ([]core.Transaction, error) {
	if pattern == "" {
		return slices.Clone(records), nil
	}
	re, err := e.Compile(pattern, caseSensitive)
	if err != nil {
		return slices.Clone(records), err
	}

	out := make([]core.Transaction, 0, len(records))
	for _, r := range records {
		if Matches(re, r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Matches reports whether re matches any searchable field of r.
func Matches(re *regexp.Regexp, r core.Transaction) bool {
	return re.MatchString(r.Description) ||
		re.MatchString(r.Amount.String()) ||
		re.MatchString(r.Category) ||
		re.MatchString(r.Date)
}
