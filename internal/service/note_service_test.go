package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

type fakeNoteRepo struct {
	mu    sync.Mutex
	seq   int
	notes map[string]domain.Note
	order []string
}

func newFakeNoteRepo() *fakeNoteRepo {
	return &fakeNoteRepo{notes: make(map[string]domain.Note)}
}

var _ repository.NoteRepository = (*fakeNoteRepo)(nil)

func (r *fakeNoteRepo) Create(_ context.Context, note *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	note.ID = fmt.Sprintf("note-%d", r.seq)
	note.CreatedAt = time.Now()
	note.UpdatedAt = note.CreatedAt
	r.notes[note.ID] = *note
	r.order = append(r.order, note.ID)
	return nil
}

func (r *fakeNoteRepo) Update(_ context.Context, note *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[note.ID]; !ok {
		return pgx.ErrNoRows
	}
	note.UpdatedAt = time.Now()
	r.notes[note.ID] = *note
	return nil
}

func (r *fakeNoteRepo) GetByID(_ context.Context, id string) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	note, ok := r.notes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &note, nil
}

func (r *fakeNoteRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Note
	for _, id := range r.order {
		if note, ok := r.notes[id]; ok && note.TicketID == ticketID {
			result = append(result, note)
		}
	}
	return result, nil
}

func (r *fakeNoteRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.notes, id)
	return nil
}

func newNoteFixture(t *testing.T) (*NoteService, *domain.Ticket) {
	t.Helper()
	ticketRepo := newFakeTicketRepo()
	ticketSvc := newTicketService(ticketRepo, nil)
	ticket, err := ticketSvc.CreateTicket(context.Background(), "user-a", validInput())
	require.NoError(t, err)

	noteSvc := NewNoteService(NoteDependencies{
		NoteRepo:   newFakeNoteRepo(),
		TicketRepo: ticketRepo,
	})
	return noteSvc, ticket
}

func TestAddNoteRequiresText(t *testing.T) {
	svc, ticket := newNoteFixture(t)
	_, err := svc.AddNote(context.Background(), "user-a", ticket.ID, "  ")
	requireDomainCode(t, err, "VALIDATION_FAILED")
}

func TestAddNoteBindsOwnerAndTicket(t *testing.T) {
	svc, ticket := newNoteFixture(t)
	note, err := svc.AddNote(context.Background(), "user-a", ticket.ID, "first note")
	require.NoError(t, err)
	assert.Equal(t, "user-a", note.OwnerID)
	assert.Equal(t, ticket.ID, note.TicketID)
	assert.Equal(t, "first note", note.Text)
}

func TestNoteOperationsGateOnParentTicket(t *testing.T) {
	svc, ticket := newNoteFixture(t)
	ctx := context.Background()

	_, err := svc.ListNotes(ctx, "user-a", "missing")
	requireDomainCode(t, err, "NOT_FOUND")

	_, err = svc.ListNotes(ctx, "user-b", ticket.ID)
	requireDomainCode(t, err, "UNAUTHORIZED")

	_, err = svc.AddNote(ctx, "user-b", ticket.ID, "intruder")
	requireDomainCode(t, err, "UNAUTHORIZED")

	notes, err := svc.ListNotes(ctx, "user-a", ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.NotNil(t, notes)
}

func TestUpdateNote(t *testing.T) {
	svc, ticket := newNoteFixture(t)
	ctx := context.Background()

	note, err := svc.AddNote(ctx, "user-a", ticket.ID, "original")
	require.NoError(t, err)

	updated, err := svc.UpdateNote(ctx, "user-a", ticket.ID, note.ID, "revised")
	require.NoError(t, err)
	assert.Equal(t, "revised", updated.Text)

	_, err = svc.UpdateNote(ctx, "user-a", ticket.ID, "missing", "revised")
	requireDomainCode(t, err, "NOT_FOUND")

	_, err = svc.UpdateNote(ctx, "user-a", ticket.ID, note.ID, "")
	requireDomainCode(t, err, "VALIDATION_FAILED")
}

func TestUpdateNoteUnderWrongTicketIsNotFound(t *testing.T) {
	ticketRepo := newFakeTicketRepo()
	ticketSvc := newTicketService(ticketRepo, nil)
	ctx := context.Background()

	first, err := ticketSvc.CreateTicket(ctx, "user-a", validInput())
	require.NoError(t, err)
	second, err := ticketSvc.CreateTicket(ctx, "user-a", validInput())
	require.NoError(t, err)

	noteSvc := NewNoteService(NoteDependencies{
		NoteRepo:   newFakeNoteRepo(),
		TicketRepo: ticketRepo,
	})
	note, err := noteSvc.AddNote(ctx, "user-a", first.ID, "on first")
	require.NoError(t, err)

	_, err = noteSvc.UpdateNote(ctx, "user-a", second.ID, note.ID, "moved?")
	requireDomainCode(t, err, "NOT_FOUND")
}

func TestDeleteNoteIsPermanent(t *testing.T) {
	svc, ticket := newNoteFixture(t)
	ctx := context.Background()

	note, err := svc.AddNote(ctx, "user-a", ticket.ID, "to delete")
	require.NoError(t, err)

	requireDomainCode(t, svc.DeleteNote(ctx, "user-b", ticket.ID, note.ID), "UNAUTHORIZED")
	require.NoError(t, svc.DeleteNote(ctx, "user-a", ticket.ID, note.ID))

	notes, err := svc.ListNotes(ctx, "user-a", ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)

	requireDomainCode(t, svc.DeleteNote(ctx, "user-a", ticket.ID, note.ID), "NOT_FOUND")
}
