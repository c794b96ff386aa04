package router

import (
	"github.com/labstack/echo/v4"

	"homexa/internal/adapter/api/handler"
	"homexa/internal/adapter/api/middleware"
)

// SetupChatRouter sets up all chat-related routes (excluding WebSocket)
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	chatGroup := e.Group("/api/chats")
	chatGroup.Use(authMiddleware.Authenticate) // All chat endpoints require authentication

	// Chat management
	chatGroup.GET("", chatHandler.GetMyChats)          // GET /api/chats - Get user's chats
	chatGroup.GET("/messages", chatHandler.GetChatByID) // GET /api/chats/messages?chatId=|product_id= - Get a conversation
	chatGroup.DELETE("/:chatId", chatHandler.DeleteChat) // DELETE /api/chats/:chatId - Hide chat for the caller

	// Message management
	chatGroup.POST("/messages", chatHandler.SendMessage)                 // POST /api/chats/messages - Send message (JSON or multipart)
	chatGroup.POST("/messages/read", chatHandler.MarkMessagesAsRead)     // POST /api/chats/messages/read - Mark messages as read
	chatGroup.DELETE("/messages/:messageId", chatHandler.DeleteMessage)  // DELETE /api/chats/messages/:messageId?deleteForAll=bool
}
