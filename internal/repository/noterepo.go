// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/mpozdeev/notesync/internal/model"
)

// NoteRepository provides CRUD access to the authoritative notes table.
type NoteRepository interface {
	// List returns notes matching the filter, pinned first, newest first.
	List(ctx context.Context, f model.NoteFilter) ([]model.Note, error)
	// Get loads a note by ID.
	Get(ctx context.Context, id int64) (*model.Note, error)
	// Create inserts a new note and returns the stored row.
	Create(ctx context.Context, d model.NoteDraft) (*model.Note, error)
	// Update replaces mutable fields and returns the stored row.
	Update(ctx context.Context, id int64, d model.NoteDraft) (*model.Note, error)
	// Delete removes a note and returns the removed row.
	Delete(ctx context.Context, id int64) (*model.Note, error)
	// ToggleFavorite flips is_favorite and returns the stored row.
	ToggleFavorite(ctx context.Context, id int64) (*model.Note, error)
	// TogglePin flips is_pinned and returns the stored row.
	TogglePin(ctx context.Context, id int64) (*model.Note, error)
}
