package handler

import (
	"mime/multipart"
	"strings"

	"github.com/labstack/echo/v4"

	"homexa/internal/infrastructure/storage"
	"homexa/internal/usecase"
	"homexa/pkg/errors"
	"homexa/pkg/response"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
	fileStorage *storage.LocalStorage
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase, fileStorage *storage.LocalStorage) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
		fileStorage: fileStorage,
	}
}

type attachmentRequest struct {
	URL  string `json:"url" validate:"required"`
	Type string `json:"type"`
}

type sendMessageRequest struct {
	ChatID      string              `json:"chatId"`
	ProductID   string              `json:"product_id"`
	Content     string              `json:"content"`
	Attachments []attachmentRequest `json:"attachments"`
}

type markReadRequest struct {
	ChatID string `json:"chatId" validate:"required"`
}

// GetMyChats lists the caller's chats, newest activity first.
func (h *ChatHandler) GetMyChats(c echo.Context) error {
	userID := c.Get("uid").(string)

	chats, err := h.chatUseCase.GetUserChats(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chats)
}

// GetChatByID returns a single conversation, addressed either by chat id or
// by the product the caller is chatting about.
func (h *ChatHandler) GetChatByID(c echo.Context) error {
	userID := c.Get("uid").(string)

	chat, err := h.chatUseCase.GetChatByID(c.Request().Context(), usecase.GetChatInput{
		ChatID:    c.QueryParam("chatId"),
		ProductID: c.QueryParam("product_id"),
	}, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chat)
}

// SendMessage accepts either a JSON body or a multipart form. Multipart
// carries file uploads, which are stored locally and attached to the message.
func (h *ChatHandler) SendMessage(c echo.Context) error {
	userID := c.Get("uid").(string)

	input := usecase.SendMessageInput{SenderID: userID}

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return response.Error(c, errors.BadRequest("Invalid multipart form", err))
		}

		input.ChatID = c.FormValue("chatId")
		input.ProductID = c.FormValue("product_id")
		input.Content = c.FormValue("content")

		for _, headers := range form.File {
			for _, fh := range headers {
				attachment, err := h.storeUpload(fh)
				if err != nil {
					return response.Error(c, err)
				}
				input.Attachments = append(input.Attachments, *attachment)
			}
		}
	} else {
		var req sendMessageRequest
		if err := c.Bind(&req); err != nil {
			return response.Error(c, err)
		}
		if err := c.Validate(&req); err != nil {
			return response.Error(c, err)
		}

		input.ChatID = req.ChatID
		input.ProductID = req.ProductID
		input.Content = req.Content
		for _, a := range req.Attachments {
			input.Attachments = append(input.Attachments, usecase.AttachmentInput{URL: a.URL, Type: a.Type})
		}
	}

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), input)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// MarkMessagesAsRead marks everything the other side sent as read.
func (h *ChatHandler) MarkMessagesAsRead(c echo.Context) error {
	var req markReadRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	if err := h.chatUseCase.MarkMessagesAsRead(c.Request().Context(), req.ChatID, userID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"chatId": req.ChatID,
	})
}

// DeleteMessage hides a message from the caller, or removes it for both
// sides when deleteForAll is set and the caller sent it.
func (h *ChatHandler) DeleteMessage(c echo.Context) error {
	userID := c.Get("uid").(string)
	messageID := c.Param("messageId")

	deleteForAll := c.QueryParam("deleteForAll")
	forAll := deleteForAll == "true" || deleteForAll == "1"

	result, err := h.chatUseCase.DeleteMessage(c.Request().Context(), messageID, userID, forAll)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

// DeleteChat hides a whole conversation from the caller's list.
func (h *ChatHandler) DeleteChat(c echo.Context) error {
	userID := c.Get("uid").(string)
	chatID := c.Param("chatId")

	if err := h.chatUseCase.SoftDeleteChat(c.Request().Context(), chatID, userID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"chatId": chatID,
	})
}

func (h *ChatHandler) storeUpload(fh *multipart.FileHeader) (*usecase.AttachmentInput, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, errors.BadRequest("Failed to read uploaded file", err)
	}
	defer file.Close()

	url, err := h.fileStorage.Save(fh.Filename, file)
	if err != nil {
		return nil, errors.Internal("Failed to store uploaded file", err)
	}

	return &usecase.AttachmentInput{
		URL:  url,
		Type: fh.Header.Get("Content-Type"),
	}, nil
}
