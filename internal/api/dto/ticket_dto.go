package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// CreateTicketRequest payload. All five fields are required.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Name        string `json:"name"`
	Issue       string `json:"issue"`
	Description string `json:"description"`
	Reporter    string `json:"reporter"`
}

// UpdateTicketRequest payload. Only the listed fields are patchable;
// owner, id, and timestamps sent by a caller are ignored.
type UpdateTicketRequest struct {
	Title       *string              `json:"title"`
	Name        *string              `json:"name"`
	Issue       *string              `json:"issue"`
	Description *string              `json:"description"`
	Reporter    *string              `json:"reporter"`
	Status      *domain.TicketStatus `json:"status"`
}

// TicketResponse is the wire shape of a ticket.
type TicketResponse struct {
	ID          string              `json:"id"`
	User        string              `json:"user"`
	Title       string              `json:"title"`
	Name        string              `json:"name"`
	Issue       string              `json:"issue"`
	Description string              `json:"description"`
	Reporter    string              `json:"reporter"`
	Status      domain.TicketStatus `json:"status"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// SuccessResponse acknowledges a deletion.
type SuccessResponse struct {
	Success bool `json:"success"`
}
