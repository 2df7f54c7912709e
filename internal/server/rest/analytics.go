package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mpozdeev/notesync/internal/service"
)

// AnalyticsHandler serves the consumer-side read API. Cached values are
// eventually consistent: they lag mutations by broker/consumer latency.
type AnalyticsHandler struct {
	svc *service.Analytics
}

// RegisterAnalytics wires analytics read routes onto e.
func RegisterAnalytics(e *echo.Echo, svc *service.Analytics) {
	h := &AnalyticsHandler{svc: svc}
	e.GET("/api/analytics", h.analytics)
	e.GET("/api/stats", h.stats)
	e.GET("/api/analytics/categories", h.categories)
	e.GET("/api/analytics/timeline", h.timeline)
}

// analytics returns the cached snapshot; it never blocks on a live refresh.
func (h *AnalyticsHandler) analytics(c echo.Context) error {
	snap := h.svc.Snapshot()
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"analytics": map[string]any{
			"cached": map[string]any{
				"totalNotes":     snap.TotalNotes,
				"categoryCounts": snap.CategoryCounts,
				"lastUpdated":    snap.LastRefreshed,
			},
		},
	})
}

func (h *AnalyticsHandler) stats(c echo.Context) error {
	s, err := h.svc.Overview(c.Request().Context())
	if err != nil {
		return fail(c, err, "stats unavailable")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"stats": map[string]any{
			"total":     s.Total,
			"work":      s.Work,
			"personal":  s.Personal,
			"ideas":     s.Ideas,
			"favorites": s.Favorites,
			"pinned":    s.Pinned,
			"overdue":   s.Overdue,
		},
	})
}

func (h *AnalyticsHandler) categories(c echo.Context) error {
	cats, err := h.svc.CategoryBreakdown(c.Request().Context())
	if err != nil {
		return fail(c, err, "stats unavailable")
	}
	out := make([]map[string]any, 0, len(cats))
	for _, cs := range cats {
		out = append(out, map[string]any{
			"category":      cs.Category,
			"count":         cs.Count,
			"favorites":     cs.Favorites,
			"with_due_date": cs.WithDueDate,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "categories": out})
}

func (h *AnalyticsHandler) timeline(c echo.Context) error {
	days := 30
	if v := c.QueryParam("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}
	points, err := h.svc.Timeline(c.Request().Context(), days)
	if err != nil {
		return fail(c, err, "stats unavailable")
	}
	out := make([]map[string]any, 0, len(points))
	for _, p := range points {
		out = append(out, map[string]any{
			"date":          p.Date.Format(time.DateOnly),
			"notes_created": p.NotesCreated,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "timeline": out})
}
