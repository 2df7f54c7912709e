package repository

import (
	"context"

	"github.com/mpozdeev/notesync/internal/model"
)

// StatsRepository runs read-only aggregate queries for the analytics service.
type StatsRepository interface {
	// CountNotes returns the total number of notes.
	CountNotes(ctx context.Context) (int64, error)
	// CountByCategory returns note counts grouped by category.
	CountByCategory(ctx context.Context) (map[string]int64, error)
	// Overview returns the coarse stats row served by /api/stats.
	Overview(ctx context.Context) (model.Stats, error)
	// CategoryBreakdown returns per-category detail, largest first.
	CategoryBreakdown(ctx context.Context) ([]model.CategoryStat, error)
	// Timeline returns per-day creation counts for the trailing window.
	Timeline(ctx context.Context, days int) ([]model.TimelinePoint, error)
}
