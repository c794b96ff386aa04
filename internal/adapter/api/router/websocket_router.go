package router

import (
	"github.com/labstack/echo/v4"

	"homexa/internal/adapter/api/handler"
)

// SetupWebSocketRouter sets up WebSocket routes
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	// Auth happens inside the handler since browsers cannot send headers
	// on the upgrade request
	e.GET("/ws/chat", wsHandler.HandleWebSocket)
}
