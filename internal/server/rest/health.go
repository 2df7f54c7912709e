package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mpozdeev/notesync/internal/broker"
)

// BrokerStatus reports the broker session state; implemented by *broker.Session.
type BrokerStatus interface {
	State() broker.State
}

// RegisterHealth wires the health endpoint. Broker connectivity is a
// required operator signal, reported as connected/disconnected.
func RegisterHealth(e *echo.Echo, serviceName string, b BrokerStatus) {
	e.GET("/health", func(c echo.Context) error {
		rabbit := "disconnected"
		if b.State() == broker.StateConnected {
			rabbit = "connected"
		}
		return c.JSON(http.StatusOK, map[string]any{
			"status":   "healthy",
			"service":  serviceName,
			"rabbitmq": rabbit,
		})
	})
}
