package models

// SortOrder is the date ordering of the display list
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
)

// Valid reports whether o is a known sort order
func (o SortOrder) Valid() bool {
	return o == SortNewest || o == SortOldest
}

// ViewMode selects the layout used by the presentation layer
type ViewMode string

const (
	ViewList ViewMode = "list"
	ViewCard ViewMode = "card"
)

// Valid reports whether m is a known view mode
func (m ViewMode) Valid() bool {
	return m == ViewList || m == ViewCard
}

// FilterState is the selected division/index subsets and sort direction
type FilterState struct {
	Divisions []Division `json:"divisions"`
	Indices   []string   `json:"indices"`
	SortOrder SortOrder  `json:"sortOrder"`
}
