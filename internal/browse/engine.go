// Package browse filters and orders the problem list for display.
package browse

import (
	"errors"
	"slices"

	"github.com/terra-clan/problem-browser/internal/models"
)

// ErrInvalidSortOrder is returned for a sort order other than newest/oldest
var ErrInvalidSortOrder = errors.New("invalid sort order")

// DefaultFilters returns the filter state of a fresh session
func DefaultFilters() models.FilterState {
	return models.FilterState{
		Divisions: []models.Division{models.Div2},
		Indices:   []string{"B"},
		SortOrder: models.SortNewest,
	}
}

// Apply keeps problems whose division and index are both selected and
// orders them by start time. An empty selection yields an empty result.
// The sort is stable, so equal start times keep source order.
func Apply(problems []models.Problem, f models.FilterState) []models.Problem {
	out := make([]models.Problem, 0)
	for _, p := range problems {
		if slices.Contains(f.Divisions, p.Division) && slices.Contains(f.Indices, p.Index) {
			out = append(out, p)
		}
	}

	newest := f.SortOrder != models.SortOldest
	slices.SortStableFunc(out, func(a, b models.Problem) int {
		switch {
		case a.StartTime == b.StartTime:
			return 0
		case (a.StartTime > b.StartTime) == newest:
			return -1
		default:
			return 1
		}
	})
	return out
}

// ToggleDivision removes d if selected, otherwise appends it
func ToggleDivision(f models.FilterState, d models.Division) models.FilterState {
	f.Divisions = toggle(f.Divisions, d)
	return f
}

// ToggleIndex removes idx if selected, otherwise appends it
func ToggleIndex(f models.FilterState, idx string) models.FilterState {
	f.Indices = toggle(f.Indices, idx)
	return f
}

// WithSortOrder returns f ordered by o
func WithSortOrder(f models.FilterState, o models.SortOrder) (models.FilterState, error) {
	if !o.Valid() {
		return f, ErrInvalidSortOrder
	}
	f.SortOrder = o
	return f, nil
}

// toggle never mutates the input slice
func toggle[T comparable](set []T, v T) []T {
	if i := slices.Index(set, v); i >= 0 {
		return slices.Delete(slices.Clone(set), i, i+1)
	}
	return append(slices.Clone(set), v)
}
