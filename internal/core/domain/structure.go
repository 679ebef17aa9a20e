package domain

import (
	"encoding/json"
	"time"
)

// FieldDescriptor names one field of a Structure and tags its type.
type FieldDescriptor struct {
	Name string `json:"name" bson:"name"`
	Type string `json:"type" bson:"type"`
}

// Structure is an admin-managed template describing the fields a Document is
// expected to carry. It is descriptive only; document content is not checked
// against it.
type Structure struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Reference   json.RawMessage   `json:"reference,omitempty"`
	Fields      []FieldDescriptor `json:"fields"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}
