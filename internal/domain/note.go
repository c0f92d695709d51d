package domain

import "time"

// Note is a free-text annotation attached to a ticket. It carries its own
// owner reference so the ownership rule applies to it directly.
type Note struct {
	ID        string
	OwnerID   string
	TicketID  string
	Text      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
