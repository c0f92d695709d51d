package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "InProgress"
	TicketStatusClosed     TicketStatus = "Closed"
)

// ValidTicketStatus reports whether s is a known status value.
func ValidTicketStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests. OwnerID is set once at
// creation from the authenticated caller and never changed afterwards.
type Ticket struct {
	ID          string
	OwnerID     string
	Title       string
	Name        string
	Issue       string
	Description string
	Reporter    string
	Status      TicketStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
