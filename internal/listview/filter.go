package listview

import (
	"fmt"
	"strings"

	"github.com/simp-lee/catalogadmin/internal/domain"
)

// StatusFilter narrows rows by their active flag.
type StatusFilter string

const (
	StatusAll      StatusFilter = "All"
	StatusActive   StatusFilter = "Active"
	StatusInactive StatusFilter = "Inactive"
)

// CategoryAll disables the category filter.
const CategoryAll = "All"

// ParseStatusFilter converts user input into a StatusFilter. Matching is
// case-insensitive; the empty string means StatusAll.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return StatusAll, nil
	case "active", "true", "1":
		return StatusActive, nil
	case "inactive", "false", "0":
		return StatusInactive, nil
	default:
		return StatusAll, domain.NewAppError(domain.CodeValidation,
			fmt.Sprintf("invalid status filter %q: must be one of All, Active, Inactive", s), nil)
	}
}

// Target resolves the filter to a concrete status value.
// ok is false for StatusAll (and the zero value), which selects every row.
func (s StatusFilter) Target() (status bool, ok bool) {
	switch s {
	case StatusActive:
		return true, true
	case StatusInactive:
		return false, true
	default:
		return false, false
	}
}

// FilterState is the transient, client-only filter input of a list screen.
type FilterState struct {
	SearchTerm string       `json:"search_term"`
	Status     StatusFilter `json:"status"`
	Category   string       `json:"category,omitempty"`
}

// normalized maps the zero status to StatusAll.
func (f FilterState) normalized() FilterState {
	if f.Status == "" {
		f.Status = StatusAll
	}
	return f
}

// categoryActive reports whether the category predicate applies.
func (f FilterState) categoryActive() bool {
	return f.Category != "" && f.Category != CategoryAll
}

// Selectors extract the fields each predicate looks at.
//
// Search returns every field a search term is matched against. Status and
// Category are optional: rows of a resource without a status (or category)
// selector are never dropped by that predicate.
type Selectors[T any] struct {
	Search   func(T) []string
	Status   func(T) bool
	Category func(T) string
}

// Apply returns the rows matching search AND status AND category.
//
// The search term is trimmed and lower-cased; a row matches when any of its
// search fields contains it. An empty term matches every row. Apply never
// modifies rows and always returns a fresh slice.
func Apply[T any](rows []T, filters FilterState, sel Selectors[T]) []T {
	filters = filters.normalized()
	term := strings.ToLower(strings.TrimSpace(filters.SearchTerm))
	want, byStatus := filters.Status.Target()
	byStatus = byStatus && sel.Status != nil
	byCategory := filters.categoryActive() && sel.Category != nil

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if term != "" && !matchesSearch(row, term, sel.Search) {
			continue
		}
		if byStatus && sel.Status(row) != want {
			continue
		}
		if byCategory && sel.Category(row) != filters.Category {
			continue
		}
		out = append(out, row)
	}
	return out
}

func matchesSearch[T any](row T, term string, fields func(T) []string) bool {
	if fields == nil {
		return false
	}
	for _, field := range fields(row) {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
