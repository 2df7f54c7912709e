package postgres

import (
	"context"

	"github.com/mpozdeev/notesync/internal/model"
)

// StatsRepo implements StatsRepository using read-only PostgreSQL aggregates.
type StatsRepo struct{ db *DB }

// NewStatsRepo constructs a stats repository.
func NewStatsRepo(db *DB) *StatsRepo { return &StatsRepo{db: db} }

// CountNotes returns the total number of notes.
func (r *StatsRepo) CountNotes(ctx context.Context) (int64, error) {
	const q = `SELECT COUNT(*) FROM notes`
	var n int64
	if err := r.db.Pool.QueryRow(ctx, q).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CountByCategory returns note counts grouped by category.
func (r *StatsRepo) CountByCategory(ctx context.Context) (map[string]int64, error) {
	const q = `SELECT category, COUNT(*) FROM notes GROUP BY category`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var cat string
		var n int64
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		counts[cat] = n
	}
	return counts, rows.Err()
}

// Overview returns the coarse stats row served by /api/stats.
func (r *StatsRepo) Overview(ctx context.Context) (model.Stats, error) {
	const q = `
SELECT
  COUNT(*),
  COUNT(*) FILTER (WHERE category = 'work'),
  COUNT(*) FILTER (WHERE category = 'personal'),
  COUNT(*) FILTER (WHERE category = 'ideas'),
  COUNT(*) FILTER (WHERE is_favorite),
  COUNT(*) FILTER (WHERE is_pinned),
  COUNT(*) FILTER (WHERE due_date IS NOT NULL AND due_date < CURRENT_TIMESTAMP)
FROM notes`
	var s model.Stats
	err := r.db.Pool.QueryRow(ctx, q).Scan(
		&s.Total, &s.Work, &s.Personal, &s.Ideas, &s.Favorites, &s.Pinned, &s.Overdue,
	)
	if err != nil {
		return model.Stats{}, err
	}
	return s, nil
}

// CategoryBreakdown returns per-category detail, largest first.
func (r *StatsRepo) CategoryBreakdown(ctx context.Context) ([]model.CategoryStat, error) {
	const q = `
SELECT category,
       COUNT(*),
       COUNT(*) FILTER (WHERE is_favorite),
       COUNT(*) FILTER (WHERE due_date IS NOT NULL)
FROM notes
GROUP BY category
ORDER BY COUNT(*) DESC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CategoryStat
	for rows.Next() {
		var c model.CategoryStat
		if err := rows.Scan(&c.Category, &c.Count, &c.Favorites, &c.WithDueDate); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Timeline returns per-day creation counts for the trailing window.
func (r *StatsRepo) Timeline(ctx context.Context, days int) ([]model.TimelinePoint, error) {
	if days <= 0 {
		days = 30
	}
	const q = `
SELECT DATE(created_at), COUNT(*)
FROM notes
WHERE created_at >= CURRENT_DATE - $1 * INTERVAL '1 day'
GROUP BY DATE(created_at)
ORDER BY DATE(created_at) ASC`
	rows, err := r.db.Pool.Query(ctx, q, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TimelinePoint
	for rows.Next() {
		var p model.TimelinePoint
		if err := rows.Scan(&p.Date, &p.NotesCreated); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
