package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mpozdeev/notesync/internal/event"
	"github.com/mpozdeev/notesync/internal/model"
	"github.com/mpozdeev/notesync/internal/repository"
)

// Analytics owns the derived analytics snapshot. One writer (the event
// handler) replaces an immutable snapshot value; many concurrent readers
// load it lock-free and never observe a torn state.
type Analytics struct {
	repo repository.StatsRepository
	log  *zap.Logger
	now  func() time.Time
	snap atomic.Pointer[model.Snapshot]
}

// NewAnalytics constructs the projector with an empty snapshot.
func NewAnalytics(repo repository.StatsRepository, log *zap.Logger) *Analytics {
	a := &Analytics{repo: repo, log: log, now: time.Now}
	a.snap.Store(&model.Snapshot{CategoryCounts: map[string]int64{}})
	return a
}

// Snapshot returns the latest swapped-in snapshot without blocking on a
// refresh. The contained map is shared and must be treated as read-only.
func (a *Analytics) Snapshot() model.Snapshot {
	return *a.snap.Load()
}

// Refresh re-derives the snapshot wholly from the authoritative store and
// swaps it in. The snapshot is a pure function of current store state, so
// refreshing twice, or for reordered events, converges to the same value.
func (a *Analytics) Refresh(ctx context.Context) error {
	total, err := a.repo.CountNotes(ctx)
	if err != nil {
		return fmt.Errorf("refresh analytics: %w", err)
	}
	byCat, err := a.repo.CountByCategory(ctx)
	if err != nil {
		return fmt.Errorf("refresh analytics: %w", err)
	}
	a.snap.Store(&model.Snapshot{
		TotalNotes:     total,
		CategoryCounts: byCat,
		LastRefreshed:  a.now().UTC(),
	})
	a.log.Debug("analytics cache refreshed", zap.Int64("total", total))
	return nil
}

// HandleEvent is the consumer handler: any note event triggers a full
// refresh. Incremental application of payloads is deliberately avoided; a
// store query failure is returned so the delivery is requeued instead of
// leaving the cache silently stale.
func (a *Analytics) HandleEvent(ctx context.Context, ev event.Envelope) error {
	if _, err := ev.Payload(); err != nil {
		// Refresh does not depend on the payload; log and continue.
		a.log.Warn("event payload undecodable", zap.String("event", ev.Type), zap.Error(err))
	}
	return a.Refresh(ctx)
}

// Overview serves /api/stats straight from the store.
func (a *Analytics) Overview(ctx context.Context) (model.Stats, error) {
	return a.repo.Overview(ctx)
}

// CategoryBreakdown serves the per-category report.
func (a *Analytics) CategoryBreakdown(ctx context.Context) ([]model.CategoryStat, error) {
	return a.repo.CategoryBreakdown(ctx)
}

// Timeline serves per-day creation counts for the trailing window.
func (a *Analytics) Timeline(ctx context.Context, days int) ([]model.TimelinePoint, error) {
	return a.repo.Timeline(ctx, days)
}
