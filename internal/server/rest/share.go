package rest

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mpozdeev/notesync/internal/crypto"
	"github.com/mpozdeev/notesync/internal/errs"
	"github.com/mpozdeev/notesync/internal/limiter"
	"github.com/mpozdeev/notesync/internal/service"
)

// ShareHandler serves token issuance, revocation and the public resolve
// endpoint. The public endpoint is guarded against token guessing by a
// per-IP sliding-window limiter.
type ShareHandler struct {
	svc   service.ShareService
	guard limiter.Limiter
	log   *zap.Logger
}

// RegisterShare wires share routes onto e. guard may be nil to disable the
// public-endpoint limiter (tests).
func RegisterShare(e *echo.Echo, svc service.ShareService, guard limiter.Limiter, log *zap.Logger) {
	h := &ShareHandler{svc: svc, guard: guard, log: log}
	e.POST("/api/notes/:id/share", h.issue)
	e.DELETE("/api/notes/:id/share", h.revoke)
	e.GET("/api/shared/:token", h.resolve)
	e.GET("/api/notes/:id/share/stats", h.stats)
	e.GET("/api/shared", h.list)
}

func shareURL(c echo.Context, token string) string {
	return c.Scheme() + "://" + c.Request().Host + "/api/shared/" + token
}

func (h *ShareHandler) issue(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, errorBody("Note not found"))
	}
	token, existed, err := h.svc.Issue(c.Request().Context(), id)
	if err != nil {
		return fail(c, err, "Note not found")
	}
	msg := "Share link generated successfully"
	if existed {
		msg = "Share link already exists"
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"shareUrl": shareURL(c, token),
		"token":    token,
		"message":  msg,
	})
}

func (h *ShareHandler) revoke(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, errorBody("Note not found"))
	}
	if err := h.svc.Revoke(c.Request().Context(), id); err != nil {
		return fail(c, err, "Note not found")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Share link revoked successfully",
	})
}

// resolve is the public, unauthenticated path. Failed lookups count against
// the caller's IP; repeated probing earns a temporary 429.
func (h *ShareHandler) resolve(c echo.Context) error {
	ctx := c.Request().Context()
	ipHash := crypto.HashIP(c.RealIP())

	if h.guard != nil {
		ok, retryAfter, err := h.guard.Allow(ctx, ipHash)
		if err != nil {
			h.log.Warn("share guard unavailable", zap.Error(err))
		} else if !ok {
			c.Response().Header().Set("Retry-After", strconv.Itoa(int(retryAfter/time.Second)+1))
			return c.JSON(http.StatusTooManyRequests, errorBody("too many requests"))
		}
	}

	n, err := h.svc.Resolve(ctx, c.Param("token"))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) && h.guard != nil {
			if _, _, gerr := h.guard.Failure(ctx, ipHash); gerr != nil {
				h.log.Warn("share guard unavailable", zap.Error(gerr))
			}
		}
		return fail(c, err, "Shared note not found or link expired")
	}
	if h.guard != nil {
		if gerr := h.guard.Success(ctx, ipHash); gerr != nil {
			h.log.Warn("share guard unavailable", zap.Error(gerr))
		}
	}

	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"note": map[string]any{
			"id":         n.ID,
			"title":      n.Title,
			"content":    n.Content,
			"category":   n.Category,
			"tags":       tags,
			"color":      n.Color,
			"view_count": n.ViewCount,
			"created_at": n.CreatedAt,
			"isShared":   true,
			"viewedAt":   time.Now().UTC(),
		},
	})
}

func (h *ShareHandler) stats(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, errorBody("Note not found"))
	}
	s, err := h.svc.Stats(c.Request().Context(), id)
	if err != nil {
		return fail(c, err, "Note not found")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"stats": map[string]any{
			"noteId":     s.NoteID,
			"title":      s.Title,
			"isShared":   s.Token != nil,
			"viewCount":  s.ViewCount,
			"shareToken": s.Token,
		},
	})
}

func (h *ShareHandler) list(c echo.Context) error {
	shared, err := h.svc.ListShared(c.Request().Context())
	if err != nil {
		return fail(c, err, "Note not found")
	}
	out := make([]map[string]any, 0, len(shared))
	for _, l := range shared {
		out = append(out, map[string]any{
			"id":         l.ID,
			"title":      l.Title,
			"category":   l.Category,
			"view_count": l.ViewCount,
			"created_at": l.CreatedAt,
			"shareUrl":   shareURL(c, l.Token),
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":     true,
		"count":       len(out),
		"sharedNotes": out,
	})
}
