package domain

import "time"

// MinPasswordLength is the shortest credential accepted for a User.
const MinPasswordLength = 8

// User models an account that can own documents and act on the repository.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
