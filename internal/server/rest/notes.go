package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mpozdeev/notesync/internal/model"
	"github.com/mpozdeev/notesync/internal/service"
)

// noteJSON is the wire representation of a note.
type noteJSON struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Category     string     `json:"category"`
	Tags         []string   `json:"tags"`
	Color        string     `json:"color"`
	IsFavorite   bool       `json:"is_favorite"`
	IsPinned     bool       `json:"is_pinned"`
	DueDate      *time.Time `json:"due_date"`
	ReminderDate *time.Time `json:"reminder_date"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type noteDraftJSON struct {
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Category     string     `json:"category"`
	Tags         []string   `json:"tags"`
	Color        string     `json:"color"`
	IsFavorite   bool       `json:"is_favorite"`
	IsPinned     bool       `json:"is_pinned"`
	DueDate      *time.Time `json:"due_date"`
	ReminderDate *time.Time `json:"reminder_date"`
}

func toNoteJSON(n *model.Note) noteJSON {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return noteJSON{
		ID:           n.ID,
		Title:        n.Title,
		Content:      n.Content,
		Category:     n.Category,
		Tags:         tags,
		Color:        n.Color,
		IsFavorite:   n.IsFavorite,
		IsPinned:     n.IsPinned,
		DueDate:      n.DueDate,
		ReminderDate: n.ReminderDate,
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    n.UpdatedAt,
	}
}

func (d noteDraftJSON) draft() model.NoteDraft {
	return model.NoteDraft{
		Title:        d.Title,
		Content:      d.Content,
		Category:     d.Category,
		Tags:         d.Tags,
		Color:        d.Color,
		IsFavorite:   d.IsFavorite,
		IsPinned:     d.IsPinned,
		DueDate:      d.DueDate,
		ReminderDate: d.ReminderDate,
	}
}

// NotesHandler serves the producer-side CRUD API.
type NotesHandler struct {
	svc service.NoteService
}

// RegisterNotes wires note CRUD routes onto e.
func RegisterNotes(e *echo.Echo, svc service.NoteService) {
	h := &NotesHandler{svc: svc}
	e.GET("/api/notes", h.list)
	e.GET("/api/notes/:id", h.get)
	e.POST("/api/notes", h.create)
	e.PUT("/api/notes/:id", h.update)
	e.DELETE("/api/notes/:id", h.remove)
	e.PATCH("/api/notes/:id/favorite", h.toggleFavorite)
	e.PATCH("/api/notes/:id/pin", h.togglePin)
}

func noteID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func (h *NotesHandler) list(c echo.Context) error {
	f := model.NoteFilter{
		Search:   c.QueryParam("search"),
		Category: c.QueryParam("category"),
	}
	notes, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return fail(c, err, "Note not found")
	}
	out := make([]noteJSON, 0, len(notes))
	for i := range notes {
		out = append(out, toNoteJSON(&notes[i]))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"count":   len(out),
		"notes":   out,
	})
}

func (h *NotesHandler) get(c echo.Context) error {
	id, err := noteID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, errorBody("Note not found"))
	}
	n, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err, "Note not found")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "note": toNoteJSON(n)})
}

func (h *NotesHandler) create(c echo.Context) error {
	var d noteDraftJSON
	if err := c.Bind(&d); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	n, err := h.svc.Create(c.Request().Context(), d.draft())
	if err != nil {
		return fail(c, err, "Note not found")
	}
	return c.JSON(http.StatusCreated, map[string]any{"success": true, "note": toNoteJSON(n)})
}

func (h *NotesHandler) update(c echo.Context) error {
	id, err := noteID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, errorBody("Note not found"))
	}
	var d noteDraftJSON
	if err := c.Bind(&d); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	n, err := h.svc.Update(c.Request().Context(), id, d.draft())
	if err != nil {
		return fail(c, err, "Note not found")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "note": toNoteJSON(n)})
}

func (h *NotesHandler) remove(c echo.Context) error {
	id, err := noteID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, errorBody("Note not found"))
	}
	n, err := h.svc.Delete(c.Request().Context(), id)
	if err != nil {
		return fail(c, err, "Note not found")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Note deleted successfully",
		"note":    toNoteJSON(n),
	})
}

func (h *NotesHandler) toggleFavorite(c echo.Context) error {
	id, err := noteID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, errorBody("Note not found"))
	}
	n, err := h.svc.ToggleFavorite(c.Request().Context(), id)
	if err != nil {
		return fail(c, err, "Note not found")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "note": toNoteJSON(n)})
}

func (h *NotesHandler) togglePin(c echo.Context) error {
	id, err := noteID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, errorBody("Note not found"))
	}
	n, err := h.svc.TogglePin(c.Request().Context(), id)
	if err != nil {
		return fail(c, err, "Note not found")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "note": toNoteJSON(n)})
}
