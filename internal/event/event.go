// Package event defines the domain-event envelope and the closed set of
// typed payload variants carried over the notes_events topic exchange.
package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// Routing keys published to the topic exchange. Consumers bind with a
// wildcard (note.*), so new keys require no consumer redeployment.
const (
	TypeNoteCreated    = "note.created"
	TypeNoteUpdated    = "note.updated"
	TypeNoteDeleted    = "note.deleted"
	TypeFavoriteToggle = "note.favorite.toggled"
	TypePinToggle      = "note.pin.toggled"
	TypeNoteShared     = "note.shared"
	TypeNoteViewed     = "note.viewed"
	TypeShareRevoked   = "note.share.revoked"
)

var known = map[string]struct{}{
	TypeNoteCreated:    {},
	TypeNoteUpdated:    {},
	TypeNoteDeleted:    {},
	TypeFavoriteToggle: {},
	TypePinToggle:      {},
	TypeNoteShared:     {},
	TypeNoteViewed:     {},
	TypeShareRevoked:   {},
}

// Known reports whether eventType belongs to the closed set this process
// understands. Unknown types are ignored-and-acked, not failed.
func Known(eventType string) bool {
	_, ok := known[eventType]
	return ok
}

// Envelope is the wire format: {eventType, data, timestamp}.
// Immutable once published.
type Envelope struct {
	Type      string          `json:"eventType"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// New builds an envelope for eventType around payload at the given time.
func New(eventType string, payload any, at time.Time) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Envelope{Type: eventType, Data: data, Timestamp: at}, nil
}

// Encode serializes the envelope for publishing.
func (e Envelope) Encode() ([]byte, error) { return json.Marshal(e) }

// Decode parses an envelope from a delivery body.
func Decode(body []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(body, &e); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if e.Type == "" {
		return Envelope{}, fmt.Errorf("decode envelope: empty eventType")
	}
	return e, nil
}

// NotePayload is the full-record payload of note.* mutation events.
// The analytics projector re-derives from the store and does not depend on
// it; it stays on the wire for logging and future consumers.
type NotePayload struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Category   string   `json:"category"`
	Tags       []string `json:"tags,omitempty"`
	Color      string   `json:"color,omitempty"`
	IsFavorite bool     `json:"is_favorite"`
	IsPinned   bool     `json:"is_pinned"`
}

// DeletePayload identifies a removed note.
type DeletePayload struct {
	ID int64 `json:"id"`
}

// SharePayload describes token issuance or revocation.
type SharePayload struct {
	NoteID int64  `json:"noteId"`
	Token  string `json:"token,omitempty"`
}

// ViewPayload describes a successful public access.
type ViewPayload struct {
	NoteID int64  `json:"noteId"`
	Token  string `json:"token"`
}

// Payload decodes the typed variant for the envelope's eventType.
// Unknown types yield (nil, nil) so callers can skip them.
func (e Envelope) Payload() (any, error) {
	switch e.Type {
	case TypeNoteCreated, TypeNoteUpdated, TypeFavoriteToggle, TypePinToggle:
		var p NotePayload
		if err := json.Unmarshal(e.Data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", e.Type, err)
		}
		return p, nil
	case TypeNoteDeleted:
		var p DeletePayload
		if err := json.Unmarshal(e.Data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", e.Type, err)
		}
		return p, nil
	case TypeNoteShared, TypeShareRevoked:
		var p SharePayload
		if err := json.Unmarshal(e.Data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", e.Type, err)
		}
		return p, nil
	case TypeNoteViewed:
		var p ViewPayload
		if err := json.Unmarshal(e.Data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", e.Type, err)
		}
		return p, nil
	default:
		return nil, nil
	}
}
