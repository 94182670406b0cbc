package models

import "time"

// CatalogStatus is the lifecycle state of the joined problem list
type CatalogStatus string

const (
	CatalogLoading CatalogStatus = "loading"
	CatalogReady   CatalogStatus = "ready"
	CatalogError   CatalogStatus = "error"
)

// CatalogSnapshot describes the catalog without copying the problem list
type CatalogSnapshot struct {
	Status       CatalogStatus `json:"status"`
	Error        string        `json:"error,omitempty"`
	ProblemCount int           `json:"problemCount"`
	Cycle        uint64        `json:"cycle"`
	LoadedAt     *time.Time    `json:"loadedAt,omitempty"`
}

// Meta lists the filter choices and defaults offered to the rendering layer
type Meta struct {
	Divisions      []Division  `json:"divisions"`
	Indices        []string    `json:"indices"`
	SortOrders     []SortOrder `json:"sortOrders"`
	ViewModes      []ViewMode  `json:"viewModes"`
	DefaultFilters FilterState `json:"defaultFilters"`
}
