package repository

import (
	"context"

	"github.com/mpozdeev/notesync/internal/model"
)

// ShareRepository maintains the share-token projection on the notes table.
type ShareRepository interface {
	// Issue associates token with the note unless one is already active and
	// returns the active token. Idempotent and race-safe.
	Issue(ctx context.Context, noteID int64, token string) (string, error)
	// Revoke clears the note's token.
	Revoke(ctx context.Context, noteID int64) error
	// Resolve returns the note for token and increments its view counter in
	// the same atomic statement.
	Resolve(ctx context.Context, token string) (*model.SharedNote, error)
	// Stats reports sharing state for one note.
	Stats(ctx context.Context, noteID int64) (*model.ShareStats, error)
	// ListShared returns all currently shared notes, most viewed first.
	ListShared(ctx context.Context) ([]model.SharedListing, error)
}
