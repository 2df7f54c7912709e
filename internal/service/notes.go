// Package service implements the application layer: note mutations with
// post-commit event publication, the share-access projection and the
// analytics cache projector.
package service

import (
	"context"
	"fmt"

	"github.com/mpozdeev/notesync/internal/errs"
	"github.com/mpozdeev/notesync/internal/event"
	"github.com/mpozdeev/notesync/internal/model"
	"github.com/mpozdeev/notesync/internal/repository"
)

// EventPublisher is the best-effort publish side of the broker. Calls never
// fail the mutation path; a fake stands in for it in tests.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any)
}

// NoteService defines operations on the authoritative notes store. Every
// successful mutation publishes its event after the store write commits.
type NoteService interface {
	List(ctx context.Context, f model.NoteFilter) ([]model.Note, error)
	Get(ctx context.Context, id int64) (*model.Note, error)
	Create(ctx context.Context, d model.NoteDraft) (*model.Note, error)
	Update(ctx context.Context, id int64, d model.NoteDraft) (*model.Note, error)
	Delete(ctx context.Context, id int64) (*model.Note, error)
	ToggleFavorite(ctx context.Context, id int64) (*model.Note, error)
	TogglePin(ctx context.Context, id int64) (*model.Note, error)
}

type NoteServiceImpl struct {
	repo repository.NoteRepository
	pub  EventPublisher
}

// NewNoteService constructs NoteService publishing through pub.
func NewNoteService(repo repository.NoteRepository, pub EventPublisher) *NoteServiceImpl {
	return &NoteServiceImpl{repo: repo, pub: pub}
}

func notePayload(n *model.Note) event.NotePayload {
	return event.NotePayload{
		ID:         n.ID,
		Title:      n.Title,
		Content:    n.Content,
		Category:   n.Category,
		Tags:       n.Tags,
		Color:      n.Color,
		IsFavorite: n.IsFavorite,
		IsPinned:   n.IsPinned,
	}
}

func validateDraft(d *model.NoteDraft) error {
	if d.Title == "" || d.Content == "" {
		return fmt.Errorf("%w: title and content are required", errs.ErrValidation)
	}
	if d.Category == "" {
		d.Category = "general"
	}
	if d.Color == "" {
		d.Color = "#667eea"
	}
	return nil
}

// List returns notes matching the filter.
func (s *NoteServiceImpl) List(ctx context.Context, f model.NoteFilter) ([]model.Note, error) {
	return s.repo.List(ctx, f)
}

// Get returns a single note by ID.
func (s *NoteServiceImpl) Get(ctx context.Context, id int64) (*model.Note, error) {
	if id <= 0 {
		return nil, errs.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Create validates the draft, stores it and publishes note.created.
func (s *NoteServiceImpl) Create(ctx context.Context, d model.NoteDraft) (*model.Note, error) {
	if err := validateDraft(&d); err != nil {
		return nil, err
	}
	n, err := s.repo.Create(ctx, d)
	if err != nil {
		return nil, err
	}
	s.pub.Publish(ctx, event.TypeNoteCreated, notePayload(n))
	return n, nil
}

// Update validates the draft, stores it and publishes note.updated.
func (s *NoteServiceImpl) Update(ctx context.Context, id int64, d model.NoteDraft) (*model.Note, error) {
	if id <= 0 {
		return nil, errs.ErrNotFound
	}
	if err := validateDraft(&d); err != nil {
		return nil, err
	}
	n, err := s.repo.Update(ctx, id, d)
	if err != nil {
		return nil, err
	}
	s.pub.Publish(ctx, event.TypeNoteUpdated, notePayload(n))
	return n, nil
}

// Delete removes the note and publishes note.deleted.
func (s *NoteServiceImpl) Delete(ctx context.Context, id int64) (*model.Note, error) {
	if id <= 0 {
		return nil, errs.ErrNotFound
	}
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.pub.Publish(ctx, event.TypeNoteDeleted, event.DeletePayload{ID: n.ID})
	return n, nil
}

// ToggleFavorite flips the flag and publishes note.favorite.toggled.
func (s *NoteServiceImpl) ToggleFavorite(ctx context.Context, id int64) (*model.Note, error) {
	if id <= 0 {
		return nil, errs.ErrNotFound
	}
	n, err := s.repo.ToggleFavorite(ctx, id)
	if err != nil {
		return nil, err
	}
	s.pub.Publish(ctx, event.TypeFavoriteToggle, notePayload(n))
	return n, nil
}

// TogglePin flips the flag and publishes note.pin.toggled.
func (s *NoteServiceImpl) TogglePin(ctx context.Context, id int64) (*model.Note, error) {
	if id <= 0 {
		return nil, errs.ErrNotFound
	}
	n, err := s.repo.TogglePin(ctx, id)
	if err != nil {
		return nil, err
	}
	s.pub.Publish(ctx, event.TypePinToggle, notePayload(n))
	return n, nil
}
