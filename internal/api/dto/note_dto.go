package dto

import "time"

// CreateNoteRequest payload.
type CreateNoteRequest struct {
	Text string `json:"text"`
}

// UpdateNoteRequest payload.
type UpdateNoteRequest struct {
	Text string `json:"text"`
}

// NoteResponse is the wire shape of a note.
type NoteResponse struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Ticket    string    `json:"ticket"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
