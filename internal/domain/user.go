package domain

import "time"

// User is the domain model for account holders who own tickets and notes.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
