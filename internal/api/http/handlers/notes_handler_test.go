package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoteLifecycle(t *testing.T) {
	ta := newTestApp(t)

	userA, tokenA := ta.registerUser(t, "Alice", "alice@example.com")
	_, tokenB := ta.registerUser(t, "Bob", "bob@example.com")

	created := ta.request(t, http.MethodPost, "/api/tickets", tokenA, map[string]any{
		"title": "T1", "name": "N1", "issue": "bug", "description": "D1", "reporter": "R1",
	}, http.StatusCreated)
	ticketID := created["id"].(string)
	notesPath := "/api/tickets/" + ticketID + "/notes"

	note := ta.request(t, http.MethodPost, notesPath, tokenA, map[string]any{
		"text": "first note",
	}, http.StatusCreated)
	assert.Equal(t, userA, note["user"])
	assert.Equal(t, ticketID, note["ticket"])
	assert.Equal(t, "first note", note["text"])
	noteID := note["id"].(string)

	// The parent ticket gates every note operation.
	ta.request(t, http.MethodGet, notesPath, tokenB, nil, http.StatusUnauthorized)
	ta.request(t, http.MethodPost, notesPath, tokenB, map[string]any{"text": "nope"}, http.StatusUnauthorized)

	list := ta.requestList(t, notesPath, tokenA, http.StatusOK)
	assert.Len(t, list, 1)

	updated := ta.request(t, http.MethodPut, notesPath+"/"+noteID, tokenA, map[string]any{
		"text": "revised",
	}, http.StatusOK)
	assert.Equal(t, "revised", updated["text"])

	deleted := ta.request(t, http.MethodDelete, notesPath+"/"+noteID, tokenA, nil, http.StatusOK)
	assert.Equal(t, true, deleted["success"])

	ta.request(t, http.MethodPut, notesPath+"/"+noteID, tokenA, map[string]any{"text": "gone"}, http.StatusNotFound)
}

func TestNoteValidationAndMissingTicket(t *testing.T) {
	ta := newTestApp(t)
	_, token := ta.registerUser(t, "Alice", "alice@example.com")

	ta.request(t, http.MethodGet, "/api/tickets/nope/notes", token, nil, http.StatusNotFound)

	created := ta.request(t, http.MethodPost, "/api/tickets", token, map[string]any{
		"title": "T1", "name": "N1", "issue": "bug", "description": "D1", "reporter": "R1",
	}, http.StatusCreated)
	notesPath := "/api/tickets/" + created["id"].(string) + "/notes"

	body := ta.request(t, http.MethodPost, notesPath, token, map[string]any{"text": "  "}, http.StatusBadRequest)
	assert.Equal(t, "please add some text", body["message"])
}
