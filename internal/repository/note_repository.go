package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// NoteRepository encapsulates note persistence.
type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) error
	Update(ctx context.Context, note *domain.Note) error
	GetByID(ctx context.Context, id string) (*domain.Note, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Note, error)
	Delete(ctx context.Context, id string) error
}

type noteRepository struct {
	pool *pgxpool.Pool
}

// NewNoteRepository instantiates repository.
func NewNoteRepository(pool *pgxpool.Pool) NoteRepository {
	return &noteRepository{pool: pool}
}

func (r *noteRepository) Create(ctx context.Context, note *domain.Note) error {
	const query = `
        INSERT INTO notes (owner_user_id, ticket_id, text)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		note.OwnerID,
		note.TicketID,
		note.Text,
	).Scan(&note.ID, &note.CreatedAt, &note.UpdatedAt)
}

func (r *noteRepository) Update(ctx context.Context, note *domain.Note) error {
	const query = `
        UPDATE notes SET text=$1, updated_at=NOW()
        WHERE id=$2
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query, note.Text, note.ID).Scan(&note.UpdatedAt)
}

func (r *noteRepository) GetByID(ctx context.Context, id string) (*domain.Note, error) {
	const query = `
        SELECT id, owner_user_id, ticket_id, text, created_at, updated_at
        FROM notes WHERE id=$1`

	var note domain.Note
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&note.ID,
		&note.OwnerID,
		&note.TicketID,
		&note.Text,
		&note.CreatedAt,
		&note.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *noteRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Note, error) {
	const query = `
        SELECT id, owner_user_id, ticket_id, text, created_at, updated_at
        FROM notes WHERE ticket_id=$1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Note
	for rows.Next() {
		var note domain.Note
		if err := rows.Scan(
			&note.ID,
			&note.OwnerID,
			&note.TicketID,
			&note.Text,
			&note.CreatedAt,
			&note.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, note)
	}
	return result, rows.Err()
}

func (r *noteRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM notes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
