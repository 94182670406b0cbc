package models

// Preset is a named filter state and layout that a session can switch to
type Preset struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Filters     FilterState `json:"filters"`
	ViewMode    ViewMode    `json:"viewMode"`
}
