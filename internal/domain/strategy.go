package domain

import "time"

// SavedStrategy is a named, reusable backtest configuration.
type SavedStrategy struct {
	ID          string    `json:"id"` // uuid
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Params      Config    `json:"parameters"`
	CreatedAt   time.Time `json:"created_at"`
}
