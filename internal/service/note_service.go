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

// NoteService coordinates note workflows. Notes follow the same
// ownership discipline as tickets, additionally scoped to their parent
// ticket: the parent is loaded and authorized before any note operation.
type NoteService struct {
	notes      repository.NoteRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
}

// NoteDependencies bundles collaborators for the note service.
type NoteDependencies struct {
	NoteRepo   repository.NoteRepository
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
}

// NewNoteService constructs the service.
func NewNoteService(deps NoteDependencies) *NoteService {
	return &NoteService{
		notes:      deps.NoteRepo,
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
	}
}

// ListNotes returns all notes on a ticket the caller owns.
func (s *NoteService) ListNotes(ctx context.Context, callerID, ticketID string) ([]domain.Note, error) {
	if _, err := s.authorizedTicket(ctx, callerID, ticketID); err != nil {
		return nil, err
	}
	notes, err := s.notes.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if notes == nil {
		notes = []domain.Note{}
	}
	return notes, nil
}

// AddNote attaches a note to a ticket the caller owns.
func (s *NoteService) AddNote(ctx context.Context, callerID, ticketID, text string) (*domain.Note, error) {
	ticket, err := s.authorizedTicket(ctx, callerID, ticketID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError("please add some text", nil)
	}

	note := &domain.Note{
		OwnerID:  callerID,
		TicketID: ticket.ID,
		Text:     strings.TrimSpace(text),
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventNoteAdded,
		TicketID: ticket.ID,
		ActorID:  callerID,
		Payload:  events.NotePayload{NoteID: note.ID},
	})
	return note, nil
}

// UpdateNote replaces the text of a note the caller owns.
func (s *NoteService) UpdateNote(ctx context.Context, callerID, ticketID, noteID, text string) (*domain.Note, error) {
	if _, err := s.authorizedTicket(ctx, callerID, ticketID); err != nil {
		return nil, err
	}
	note, err := s.loadNote(ctx, ticketID, noteID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(note.OwnerID, callerID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError("please add some text", nil)
	}

	note.Text = strings.TrimSpace(text)
	if err := s.notes.Update(ctx, note); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventNoteUpdated,
		TicketID: note.TicketID,
		ActorID:  callerID,
		Payload:  events.NotePayload{NoteID: note.ID},
	})
	return note, nil
}

// DeleteNote permanently removes a note the caller owns.
func (s *NoteService) DeleteNote(ctx context.Context, callerID, ticketID, noteID string) error {
	if _, err := s.authorizedTicket(ctx, callerID, ticketID); err != nil {
		return err
	}
	note, err := s.loadNote(ctx, ticketID, noteID)
	if err != nil {
		return err
	}
	if err := authorizeOwner(note.OwnerID, callerID); err != nil {
		return err
	}
	if err := s.notes.Delete(ctx, note.ID); err != nil {
		return apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventNoteDeleted,
		TicketID: note.TicketID,
		ActorID:  callerID,
		Payload:  events.NotePayload{NoteID: note.ID},
	})
	return nil
}

func (s *NoteService) authorizedTicket(ctx context.Context, callerID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if err := authorizeOwner(ticket.OwnerID, callerID); err != nil {
		return nil, err
	}
	return ticket, nil
}

// loadNote fetches a note by id; a note that exists under a different
// ticket is reported as absent.
func (s *NoteService) loadNote(ctx context.Context, ticketID, noteID string) (*domain.Note, error) {
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("note", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if note.TicketID != ticketID {
		return nil, apperrors.NewNotFound("note", nil)
	}
	return note, nil
}

func (s *NoteService) publishEvent(ctx context.Context, event events.Event) {
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
