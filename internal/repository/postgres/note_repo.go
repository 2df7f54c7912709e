package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mpozdeev/notesync/internal/errs"
	"github.com/mpozdeev/notesync/internal/model"
)

// noteColumns is the canonical select list scanned by scanNote.
const noteColumns = `id, title, content, category, tags, color, is_favorite, is_pinned,
due_date, reminder_date, shared_token, view_count, created_at, updated_at`

// NoteRepo implements NoteRepository using PostgreSQL.
type NoteRepo struct{ db *DB }

// NewNoteRepo constructs a note repository.
func NewNoteRepo(db *DB) *NoteRepo { return &NoteRepo{db: db} }

func scanNote(row pgx.Row) (*model.Note, error) {
	var n model.Note
	err := row.Scan(
		&n.ID, &n.Title, &n.Content, &n.Category, &n.Tags, &n.Color,
		&n.IsFavorite, &n.IsPinned, &n.DueDate, &n.ReminderDate,
		&n.SharedToken, &n.ViewCount, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// List returns notes matching the filter, pinned first, newest first.
func (r *NoteRepo) List(ctx context.Context, f model.NoteFilter) ([]model.Note, error) {
	q := `SELECT ` + noteColumns + ` FROM notes WHERE 1=1`
	args := []any{}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		q += ` AND (title ILIKE $1 OR content ILIKE $1)`
	}
	if f.Category != "" && f.Category != "all" {
		args = append(args, f.Category)
		if len(args) == 1 {
			q += ` AND category = $1`
		} else {
			q += ` AND category = $2`
		}
	}
	q += ` ORDER BY is_pinned DESC, created_at DESC`

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// Get selects a note by ID.
func (r *NoteRepo) Get(ctx context.Context, id int64) (*model.Note, error) {
	q := `SELECT ` + noteColumns + ` FROM notes WHERE id=$1`
	return scanNote(r.db.Pool.QueryRow(ctx, q, id))
}

// Create inserts a new note row and returns it.
func (r *NoteRepo) Create(ctx context.Context, d model.NoteDraft) (*model.Note, error) {
	q := `
INSERT INTO notes (title, content, category, tags, color, is_favorite, is_pinned, due_date, reminder_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + noteColumns
	row := r.db.Pool.QueryRow(ctx, q,
		d.Title, d.Content, d.Category, d.Tags, d.Color,
		d.IsFavorite, d.IsPinned, d.DueDate, d.ReminderDate,
	)
	return scanNote(row)
}

// Update replaces mutable fields and returns the stored row.
func (r *NoteRepo) Update(ctx context.Context, id int64, d model.NoteDraft) (*model.Note, error) {
	q := `
UPDATE notes
SET title=$1, content=$2, category=$3, tags=$4, color=$5,
    is_favorite=$6, is_pinned=$7, due_date=$8, reminder_date=$9,
    updated_at=CURRENT_TIMESTAMP
WHERE id=$10
RETURNING ` + noteColumns
	row := r.db.Pool.QueryRow(ctx, q,
		d.Title, d.Content, d.Category, d.Tags, d.Color,
		d.IsFavorite, d.IsPinned, d.DueDate, d.ReminderDate, id,
	)
	return scanNote(row)
}

// Delete removes a note and returns the removed row.
func (r *NoteRepo) Delete(ctx context.Context, id int64) (*model.Note, error) {
	q := `DELETE FROM notes WHERE id=$1 RETURNING ` + noteColumns
	return scanNote(r.db.Pool.QueryRow(ctx, q, id))
}

// ToggleFavorite flips is_favorite and returns the stored row.
func (r *NoteRepo) ToggleFavorite(ctx context.Context, id int64) (*model.Note, error) {
	q := `
UPDATE notes
SET is_favorite = NOT is_favorite, updated_at=CURRENT_TIMESTAMP
WHERE id=$1
RETURNING ` + noteColumns
	return scanNote(r.db.Pool.QueryRow(ctx, q, id))
}

// TogglePin flips is_pinned and returns the stored row.
func (r *NoteRepo) TogglePin(ctx context.Context, id int64) (*model.Note, error) {
	q := `
UPDATE notes
SET is_pinned = NOT is_pinned, updated_at=CURRENT_TIMESTAMP
WHERE id=$1
RETURNING ` + noteColumns
	return scanNote(r.db.Pool.QueryRow(ctx, q, id))
}
