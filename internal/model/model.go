// Package model defines domain entities used by services and repositories.
package model

import "time"

// Note is a single note row from the authoritative store.
type Note struct {
	ID           int64
	Title        string
	Content      string
	Category     string // defaults to "general"
	Tags         []string
	Color        string // hex, e.g. "#667eea"
	IsFavorite   bool
	IsPinned     bool
	DueDate      *time.Time
	ReminderDate *time.Time
	SharedToken  *string // nil when the note is not shared
	ViewCount    int64   // public accesses via share token, never decreases
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NoteDraft carries client-supplied fields for create/update.
type NoteDraft struct {
	Title        string
	Content      string
	Category     string
	Tags         []string
	Color        string
	IsFavorite   bool
	IsPinned     bool
	DueDate      *time.Time
	ReminderDate *time.Time
}

// NoteFilter narrows note listings.
type NoteFilter struct {
	Search   string // substring match against title/content
	Category string // empty or "all" means no filter
}

// Snapshot is the derived analytics view. Instances are immutable once
// published; the projector replaces the whole value instead of mutating it.
type Snapshot struct {
	TotalNotes     int64
	CategoryCounts map[string]int64
	LastRefreshed  time.Time
}

// Stats is the on-demand aggregate served by the analytics read API.
type Stats struct {
	Total     int64
	Work      int64
	Personal  int64
	Ideas     int64
	Favorites int64
	Pinned    int64
	Overdue   int64
}

// CategoryStat is one row of the per-category breakdown.
type CategoryStat struct {
	Category    string
	Count       int64
	Favorites   int64
	WithDueDate int64
}

// TimelinePoint counts notes created on a single day.
type TimelinePoint struct {
	Date         time.Time
	NotesCreated int64
}

// SharedNote is the public projection of a note reachable by share token.
type SharedNote struct {
	ID        int64
	Title     string
	Content   string
	Category  string
	Tags      []string
	Color     string
	ViewCount int64
	CreatedAt time.Time
}

// SharedListing is one row of the shared-notes management view.
type SharedListing struct {
	ID        int64
	Title     string
	Category  string
	Token     string
	ViewCount int64
	CreatedAt time.Time
}

// ShareStats reports sharing state for a single note.
type ShareStats struct {
	NoteID    int64
	Title     string
	Token     *string
	ViewCount int64
}
