package service

import (
	"context"
	"fmt"

	"github.com/mpozdeev/notesync/internal/crypto"
	"github.com/mpozdeev/notesync/internal/errs"
	"github.com/mpozdeev/notesync/internal/event"
	"github.com/mpozdeev/notesync/internal/model"
	"github.com/mpozdeev/notesync/internal/repository"
)

// ShareService maintains the public share-access projection. Token lookup
// and the view counter are synchronous store operations on the request
// path; the event stream is not involved in their correctness.
type ShareService interface {
	// Issue returns the note's active token, minting one if absent.
	// Calling it twice without a revoke returns the same token.
	Issue(ctx context.Context, noteID int64) (token string, existed bool, err error)
	// Revoke clears the note's token; a later Resolve of it is not-found.
	Revoke(ctx context.Context, noteID int64) error
	// Resolve returns the note for token, counting the access exactly once.
	Resolve(ctx context.Context, token string) (*model.SharedNote, error)
	// Stats reports sharing state for one note.
	Stats(ctx context.Context, noteID int64) (*model.ShareStats, error)
	// ListShared returns all shared notes, most viewed first.
	ListShared(ctx context.Context) ([]model.SharedListing, error)
}

type ShareServiceImpl struct {
	repo     repository.ShareRepository
	pub      EventPublisher
	newToken func() (string, error)
}

// NewShareService constructs ShareService with crypto-random tokens.
func NewShareService(repo repository.ShareRepository, pub EventPublisher) *ShareServiceImpl {
	return &ShareServiceImpl{repo: repo, pub: pub, newToken: crypto.NewShareToken}
}

// Issue mints a candidate token and lets the store pick the winner: the
// repository keeps an existing token, so concurrent issues converge.
func (s *ShareServiceImpl) Issue(ctx context.Context, noteID int64) (string, bool, error) {
	if noteID <= 0 {
		return "", false, errs.ErrNotFound
	}
	candidate, err := s.newToken()
	if err != nil {
		return "", false, fmt.Errorf("mint token: %w", err)
	}
	active, err := s.repo.Issue(ctx, noteID, candidate)
	if err != nil {
		return "", false, err
	}
	existed := active != candidate
	if !existed {
		s.pub.Publish(ctx, event.TypeNoteShared, event.SharePayload{NoteID: noteID, Token: active})
	}
	return active, existed, nil
}

// Revoke clears the association and publishes note.share.revoked.
func (s *ShareServiceImpl) Revoke(ctx context.Context, noteID int64) error {
	if noteID <= 0 {
		return errs.ErrNotFound
	}
	if err := s.repo.Revoke(ctx, noteID); err != nil {
		return err
	}
	s.pub.Publish(ctx, event.TypeShareRevoked, event.SharePayload{NoteID: noteID})
	return nil
}

// Resolve returns the note behind token. The repository increments the view
// counter in the same statement, so the count moves exactly once per
// successful resolution even under concurrent access.
func (s *ShareServiceImpl) Resolve(ctx context.Context, token string) (*model.SharedNote, error) {
	if token == "" {
		return nil, errs.ErrNotFound
	}
	n, err := s.repo.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	s.pub.Publish(ctx, event.TypeNoteViewed, event.ViewPayload{NoteID: n.ID, Token: token})
	return n, nil
}

// Stats reports sharing state for one note.
func (s *ShareServiceImpl) Stats(ctx context.Context, noteID int64) (*model.ShareStats, error) {
	if noteID <= 0 {
		return nil, errs.ErrNotFound
	}
	return s.repo.Stats(ctx, noteID)
}

// ListShared returns all shared notes.
func (s *ShareServiceImpl) ListShared(ctx context.Context) ([]model.SharedListing, error) {
	return s.repo.ListShared(ctx)
}
