package rest

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mpozdeev/notesync/internal/errs"
)

func errorBody(msg string) map[string]any {
	return map[string]any{"success": false, "error": msg}
}

// fail maps service errors onto the {success:false, error} wire shape.
func fail(c echo.Context, err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorBody(notFoundMsg))
	case errors.Is(err, errs.ErrValidation):
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	default:
		return c.JSON(http.StatusInternalServerError, errorBody("internal error"))
	}
}
