package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-desk/internal/api/http"
	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/service"
)

// In-memory repositories backing the fiber app under test.

type memUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]domain.User
}

var _ repository.UserRepository = (*memUserRepo)(nil)

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]domain.Ticket
	order   []string
}

var _ repository.TicketRepository = (*memTicketRepo)(nil)

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	r.tickets[ticket.ID] = *ticket
	r.order = append(r.order, ticket.ID)
	return nil
}

func (r *memTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (r *memTicketRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, id := range r.order {
		if ticket, ok := r.tickets[id]; ok && ticket.OwnerID == ownerID {
			result = append(result, ticket)
		}
	}
	return result, nil
}

func (r *memTicketRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

type memNoteRepo struct {
	mu    sync.Mutex
	seq   int
	notes map[string]domain.Note
	order []string
}

var _ repository.NoteRepository = (*memNoteRepo)(nil)

func (r *memNoteRepo) Create(_ context.Context, note *domain.Note) error {
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

func (r *memNoteRepo) Update(_ context.Context, note *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[note.ID]; !ok {
		return pgx.ErrNoRows
	}
	note.UpdatedAt = time.Now()
	r.notes[note.ID] = *note
	return nil
}

func (r *memNoteRepo) GetByID(_ context.Context, id string) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	note, ok := r.notes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &note, nil
}

func (r *memNoteRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Note, error) {
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

func (r *memNoteRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.notes, id)
	return nil
}

type testApp struct {
	app *fiber.App
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := config.Config{
		App: config.AppConfig{Name: "support-desk", Env: "development", Version: "test"},
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 5,
			BcryptCost:            4,
		},
	}

	userRepo := &memUserRepo{users: make(map[string]domain.User)}
	ticketRepo := &memTicketRepo{tickets: make(map[string]domain.Ticket)}
	noteRepo := &memNoteRepo{notes: make(map[string]domain.Note)}

	dispatcher := events.NewInMemoryDispatcher()
	authService := service.NewAuthService(cfg, userRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Dispatcher: dispatcher,
	})
	noteService := service.NewNoteService(service.NoteDependencies{
		NoteRepo:   noteRepo,
		TicketRepo: ticketRepo,
		Dispatcher: dispatcher,
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:      zap.NewNop(),
		Metrics:     observability.NewMetrics(),
		Development: true,
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Notes:          handlers.NewNotesHandler(noteService),
		AuthMiddleware: auth.NewMiddleware(authService.TokenManager(), userRepo),
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, nil, nil),
	})

	return &testApp{app: app}
}

// registerUser creates an account straight through the API and returns
// its id and bearer token.
func (ta *testApp) registerUser(t *testing.T, name, email string) (string, string) {
	t.Helper()
	body := ta.request(t, http.MethodPost, "/api/users", "", map[string]any{
		"name":     name,
		"email":    email,
		"password": "hunter2",
	}, http.StatusCreated)
	return body["id"].(string), body["token"].(string)
}

func (ta *testApp) do(t *testing.T, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (ta *testApp) request(t *testing.T, method, path, token string, payload any, wantStatus int) map[string]any {
	t.Helper()
	resp := ta.do(t, method, path, token, payload)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, wantStatus, resp.StatusCode, "unexpected status, body: %s", raw)

	var body map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body))
	}
	return body
}

func (ta *testApp) requestList(t *testing.T, path, token string, wantStatus int) []map[string]any {
	t.Helper()
	resp := ta.do(t, http.MethodGet, path, token, nil)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, wantStatus, resp.StatusCode, "unexpected status, body: %s", raw)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
