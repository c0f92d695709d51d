package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// NotesHandler manages note endpoints nested under a ticket.
type NotesHandler struct {
	service *service.NoteService
}

// NewNotesHandler constructs handler.
func NewNotesHandler(noteService *service.NoteService) *NotesHandler {
	return &NotesHandler{service: noteService}
}

// ListNotes GET /api/tickets/:ticketId/notes.
func (h *NotesHandler) ListNotes(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	notes, err := h.service.ListNotes(c.Context(), user.ID, c.Params("ticketId"))
	if err != nil {
		return err
	}
	items := make([]dto.NoteResponse, 0, len(notes))
	for i := range notes {
		items = append(items, noteResponse(&notes[i]))
	}
	return c.JSON(items)
}

// AddNote POST /api/tickets/:ticketId/notes.
func (h *NotesHandler) AddNote(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	note, err := h.service.AddNote(c.Context(), user.ID, c.Params("ticketId"), req.Text)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(noteResponse(note))
}

// UpdateNote PUT /api/tickets/:ticketId/notes/:id.
func (h *NotesHandler) UpdateNote(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.UpdateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	note, err := h.service.UpdateNote(c.Context(), user.ID, c.Params("ticketId"), c.Params("id"), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(noteResponse(note))
}

// DeleteNote DELETE /api/tickets/:ticketId/notes/:id.
func (h *NotesHandler) DeleteNote(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.service.DeleteNote(c.Context(), user.ID, c.Params("ticketId"), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.SuccessResponse{Success: true})
}

func noteResponse(note *domain.Note) dto.NoteResponse {
	return dto.NoteResponse{
		ID:        note.ID,
		User:      note.OwnerID,
		Ticket:    note.TicketID,
		Text:      note.Text,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
}
