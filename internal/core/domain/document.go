package domain

import (
	"encoding/json"
	"time"
)

// Document is a user-owned record with an opaque JSON payload.
// Owner is set once at creation and never changes afterwards.
type Document struct {
	ID          string          `json:"id"`
	Owner       string          `json:"owner"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Type        int             `json:"type"`
	SubType     int             `json:"subType"`
	Content     json.RawMessage `json:"content,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
