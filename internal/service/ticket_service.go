package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// TicketListCache is the per-owner listing cache consulted on reads and
// invalidated on writes. Cache failures never fail the operation.
type TicketListCache interface {
	GetOwnerList(ctx context.Context, ownerID string) ([]domain.Ticket, error)
	SetOwnerList(ctx context.Context, ownerID string, list []domain.Ticket) error
	Invalidate(ctx context.Context, ownerID string) error
}

// TicketService coordinates ticket workflows. Every record-scoped
// operation loads the ticket first and checks ownership second, so an
// absent id reports not-found and a foreign-owned id reports unauthorized.
type TicketService struct {
	tickets    repository.TicketRepository
	cache      TicketListCache
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Cache      TicketListCache
	Dispatcher events.Dispatcher
}

// TicketCreateInput describes ticket creation payload. All five fields
// are required; owner and status are never caller-supplied.
type TicketCreateInput struct {
	Title       string
	Name        string
	Issue       string
	Description string
	Reporter    string
}

// TicketPatch describes the mutable fields of an update. Nil means leave
// unchanged. Owner, id, and timestamps are not patchable.
type TicketPatch struct {
	Title       *string
	Name        *string
	Issue       *string
	Description *string
	Reporter    *string
	Status      *domain.TicketStatus
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
	}
}

// ListTickets returns all tickets owned by the caller, oldest first.
func (s *TicketService) ListTickets(ctx context.Context, ownerID string) ([]domain.Ticket, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetOwnerList(ctx, ownerID); err == nil && cached != nil {
			return cached, nil
		}
	}
	tickets, err := s.tickets.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	if s.cache != nil {
		_ = s.cache.SetOwnerList(ctx, ownerID, tickets)
	}
	return tickets, nil
}

// GetTicket fetches a single ticket ensuring ownership.
func (s *TicketService) GetTicket(ctx context.Context, callerID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(ticket.OwnerID, callerID); err != nil {
		return nil, err
	}
	return ticket, nil
}

// CreateTicket creates a ticket owned by the caller. Status is always
// Open on creation regardless of input.
func (s *TicketService) CreateTicket(ctx context.Context, callerID string, input TicketCreateInput) (*domain.Ticket, error) {
	if missingAny(input.Title, input.Name, input.Issue, input.Description, input.Reporter) {
		return nil, apperrors.NewValidationError("please add all required fields", nil)
	}

	ticket := &domain.Ticket{
		OwnerID:     callerID,
		Title:       strings.TrimSpace(input.Title),
		Name:        strings.TrimSpace(input.Name),
		Issue:       strings.TrimSpace(input.Issue),
		Description: strings.TrimSpace(input.Description),
		Reporter:    strings.TrimSpace(input.Reporter),
		Status:      domain.TicketStatusOpen,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidateList(ctx, callerID)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  callerID,
		Payload: events.TicketCreatedPayload{
			Title:  ticket.Title,
			Issue:  ticket.Issue,
			Status: ticket.Status,
		},
	})
	return ticket, nil
}

// UpdateTicket applies an allow-listed patch to a ticket the caller owns.
func (s *TicketService) UpdateTicket(ctx context.Context, callerID, ticketID string, patch TicketPatch) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(ticket.OwnerID, callerID); err != nil {
		return nil, err
	}
	if patch.Status != nil && !domain.ValidTicketStatus(*patch.Status) {
		return nil, apperrors.NewValidationError("unknown ticket status", map[string]any{"status": *patch.Status})
	}

	applyString(&ticket.Title, patch.Title)
	applyString(&ticket.Name, patch.Name)
	applyString(&ticket.Issue, patch.Issue)
	applyString(&ticket.Description, patch.Description)
	applyString(&ticket.Reporter, patch.Reporter)
	if patch.Status != nil {
		ticket.Status = *patch.Status
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidateList(ctx, callerID)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		ActorID:  callerID,
		Payload:  events.TicketUpdatedPayload{Status: ticket.Status},
	})
	return ticket, nil
}

// DeleteTicket permanently removes a ticket the caller owns.
func (s *TicketService) DeleteTicket(ctx context.Context, callerID, ticketID string) error {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if err := authorizeOwner(ticket.OwnerID, callerID); err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return apperrors.MapError(err)
	}
	s.invalidateList(ctx, callerID)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticket.ID,
		ActorID:  callerID,
	})
	return nil
}

func (s *TicketService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) invalidateList(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, ownerID)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// authorizeOwner is the single ownership gate: identifiers are compared
// in their canonical string form.
func authorizeOwner(ownerID, callerID string) error {
	if ownerID != callerID {
		return apperrors.NewUnauthorized("not authorized")
	}
	return nil
}

func missingAny(fields ...string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return true
		}
	}
	return false
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}
