package models

import "strconv"

// Progress is a user's completion state and notes for one problem.
// UpdatedAt is Unix milliseconds, zero until the first write.
type Progress struct {
	Done      bool   `json:"done"`
	Notes     string `json:"notes"`
	UpdatedAt int64  `json:"updatedAt,omitempty"`
}

// ProgressMap maps a progress key to its record
type ProgressMap map[string]Progress

// ProgressUpdate is a partial update; nil fields are left unchanged
type ProgressUpdate struct {
	Done  *bool   `json:"done,omitempty"`
	Notes *string `json:"notes,omitempty"`
}

// ProgressKey builds the storage key for a problem. The separator keeps
// keys unique since contest ids are purely numeric.
func ProgressKey(contestID int, index string) string {
	return strconv.Itoa(contestID) + "_" + index
}
