package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mpozdeev/notesync/internal/errs"
	"github.com/mpozdeev/notesync/internal/model"
)

// ShareRepo implements ShareRepository using PostgreSQL.
type ShareRepo struct{ db *DB }

// NewShareRepo constructs a share repository.
func NewShareRepo(db *DB) *ShareRepo { return &ShareRepo{db: db} }

// Issue stores token unless the note already has one, returning the active
// token either way. COALESCE keeps the operation a single atomic statement,
// so two concurrent issues for the same note agree on one token.
func (r *ShareRepo) Issue(ctx context.Context, noteID int64, token string) (string, error) {
	const q = `
UPDATE notes SET shared_token = COALESCE(shared_token, $2)
WHERE id=$1
RETURNING shared_token`
	var active string
	if err := r.db.Pool.QueryRow(ctx, q, noteID, token).Scan(&active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", errs.ErrNotFound
		}
		return "", err
	}
	return active, nil
}

// Revoke clears the note's token.
func (r *ShareRepo) Revoke(ctx context.Context, noteID int64) error {
	const q = `UPDATE notes SET shared_token = NULL WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, noteID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Resolve looks the note up by token and bumps its view counter in the same
// statement, so concurrent resolves never lose increments.
func (r *ShareRepo) Resolve(ctx context.Context, token string) (*model.SharedNote, error) {
	const q = `
UPDATE notes SET view_count = view_count + 1
WHERE shared_token=$1
RETURNING id, title, content, category, tags, color, view_count, created_at`
	row := r.db.Pool.QueryRow(ctx, q, token)
	var n model.SharedNote
	err := row.Scan(&n.ID, &n.Title, &n.Content, &n.Category, &n.Tags, &n.Color, &n.ViewCount, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// Stats reports sharing state for one note.
func (r *ShareRepo) Stats(ctx context.Context, noteID int64) (*model.ShareStats, error) {
	const q = `SELECT id, title, shared_token, view_count FROM notes WHERE id=$1`
	row := r.db.Pool.QueryRow(ctx, q, noteID)
	var s model.ShareStats
	if err := row.Scan(&s.NoteID, &s.Title, &s.Token, &s.ViewCount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListShared returns all currently shared notes, most viewed first.
func (r *ShareRepo) ListShared(ctx context.Context) ([]model.SharedListing, error) {
	const q = `
SELECT id, title, category, shared_token, view_count, created_at
FROM notes
WHERE shared_token IS NOT NULL
ORDER BY view_count DESC, created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SharedListing
	for rows.Next() {
		var l model.SharedListing
		if err := rows.Scan(&l.ID, &l.Title, &l.Category, &l.Token, &l.ViewCount, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
