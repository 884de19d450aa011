package models

// Place is a ranked third-party venue suggestion.
type Place struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Rating  *float64 `json:"rating,omitempty"`
}

// Event is a ranked third-party event suggestion.
type Event struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Address string   `json:"address"`
	IsFree  *bool    `json:"is_free,omitempty"`
	Cost    *float64 `json:"cost,omitempty"`
}

// Suggestions bundles the adapter output for one location + category.
type Suggestions struct {
	Places []Place `json:"places"`
	Events []Event `json:"events"`
}
