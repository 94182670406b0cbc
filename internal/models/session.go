package models

import "time"

// Entry is one row of the display list: a problem and its progress
type Entry struct {
	Problem
	Progress Progress `json:"progress"`
}

// View is the display list handed to the rendering layer
type View struct {
	SessionID string          `json:"sessionId,omitempty"`
	Filters   FilterState     `json:"filters"`
	ViewMode  ViewMode        `json:"viewMode"`
	Catalog   CatalogSnapshot `json:"catalog"`
	Entries   []Entry         `json:"entries"`
	Total     int             `json:"total"`
	Done      int             `json:"done"`
}

// SessionInfo describes a browsing session
type SessionInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	LastSeen  time.Time `json:"lastSeen"`
}

// SortRequest changes the sort order of a session
type SortRequest struct {
	Order SortOrder `json:"order"`
}

// ViewModeRequest changes the layout of a session
type ViewModeRequest struct {
	Mode ViewMode `json:"mode"`
}

// ProgressResponse is returned by the progress endpoints
type ProgressResponse struct {
	ContestID int      `json:"contestId"`
	Index     string   `json:"index"`
	Progress  Progress `json:"progress"`
	Persisted bool     `json:"persisted"`
}
