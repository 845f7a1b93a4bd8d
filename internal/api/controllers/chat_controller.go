package apicontrollers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/kodechat/chatbot/internal/domain/errs"
	"github.com/kodechat/chatbot/internal/domain/services"
)

type ChatController struct {
	logger        *zap.Logger
	chatService   services.ChatService
	conversations services.ConversationService
}

func NewChatController(logger *zap.Logger, chatService services.ChatService, conversations services.ConversationService) *ChatController {
	return &ChatController{
		logger:        logger,
		chatService:   chatService,
		conversations: conversations,
	}
}

// RegisterRoutes registers all chat-related routes with Echo
func (c *ChatController) RegisterRoutes(e *echo.Group) {
	e.POST("/chat", c.Chat)
	e.POST("/chat/conversation", c.CreateConversation)
	e.GET("/chat/conversations", c.ListConversations)
	e.GET("/chat/conversation/:id/history", c.GetHistory)
	e.DELETE("/chat/conversation/:id", c.DeleteConversation)
}

// ChatRequest is the request body for sending a message.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// ChatResponse is the reply returned for an accepted turn.
type ChatResponse struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
	Model          string `json:"model"`
	Timestamp      string `json:"timestamp"`
}

// Chat sends a message to the chatbot and returns the assistant reply.
// Omitting conversation_id starts a new conversation; a supplied id
// that does not exist returns 404.
func (c *ChatController) Chat(ctx echo.Context) error {
	var input ChatRequest
	if err := ctx.Bind(&input); err != nil {
		return c.handleError(ctx, "Invalid request body", http.StatusBadRequest)
	}

	result, err := c.chatService.HandleMessage(ctx.Request().Context(), input.ConversationID, input.Message)
	if err != nil {
		switch e := err.(type) {
		case *errs.ValidationError:
			return c.handleError(ctx, err.Error(), http.StatusBadRequest)
		case *errs.NotFoundError:
			return c.handleError(ctx, "Conversation not found", http.StatusNotFound)
		case *errs.GenerationError:
			// The user's message is persisted; surface the id so the
			// client can retry the turn.
			c.logger.Warn("Generation failed", zap.String("conversation_id", e.ConversationID), zap.Error(err))
			return ctx.JSON(http.StatusBadGateway, map[string]any{
				"error":           "Failed to generate a reply; your message was saved",
				"conversation_id": e.ConversationID,
			})
		default:
			return c.handleError(ctx, err, http.StatusInternalServerError)
		}
	}

	return ctx.JSON(http.StatusOK, ChatResponse{
		Message:        result.Message.Content,
		ConversationID: result.ConversationID,
		Model:          result.Model,
		Timestamp:      result.Message.Timestamp.Format(time.RFC3339Nano),
	})
}

// CreateConversation explicitly creates an empty conversation.
func (c *ChatController) CreateConversation(ctx echo.Context) error {
	var input struct {
		Title string `json:"title"`
	}
	if err := ctx.Bind(&input); err != nil && ctx.Request().ContentLength > 0 {
		return c.handleError(ctx, "Invalid request body", http.StatusBadRequest)
	}

	conversation, err := c.conversations.CreateConversation(ctx.Request().Context(), input.Title)
	if err != nil {
		return c.handleError(ctx, err, http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusCreated, map[string]string{
		"conversation_id": conversation.ID,
	})
}

// ListConversations returns summaries, most recently updated first.
// Pass the returned cursor back to resume the listing.
func (c *ChatController) ListConversations(ctx echo.Context) error {
	cursor := ctx.QueryParam("cursor")
	limit := 0
	if raw := ctx.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.handleError(ctx, "Invalid limit", http.StatusBadRequest)
		}
		limit = parsed
	}

	summaries, nextCursor, err := c.conversations.ListConversations(ctx.Request().Context(), cursor, limit)
	if err != nil {
		switch err.(type) {
		case *errs.ValidationError:
			return c.handleError(ctx, err.Error(), http.StatusBadRequest)
		default:
			return c.handleError(ctx, err, http.StatusInternalServerError)
		}
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"conversations": summaries,
		"next_cursor":   nextCursor,
	})
}

// GetHistory returns the full ordered message history of a conversation.
func (c *ChatController) GetHistory(ctx echo.Context) error {
	id := ctx.Param("id")
	if id == "" {
		return c.handleError(ctx, "Missing conversation ID", http.StatusBadRequest)
	}

	conversation, err := c.conversations.GetConversation(ctx.Request().Context(), id)
	if err != nil {
		switch err.(type) {
		case *errs.NotFoundError:
			return c.handleError(ctx, "Conversation not found", http.StatusNotFound)
		default:
			return c.handleError(ctx, err, http.StatusInternalServerError)
		}
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"conversation_id": conversation.ID,
		"title":           conversation.Title,
		"messages":        conversation.Messages,
	})
}

// DeleteConversation deletes a conversation and all its messages.
// Deleting an id that does not exist returns 404.
func (c *ChatController) DeleteConversation(ctx echo.Context) error {
	id := ctx.Param("id")
	if id == "" {
		return c.handleError(ctx, "Missing conversation ID", http.StatusBadRequest)
	}

	if err := c.chatService.DeleteConversation(ctx.Request().Context(), id); err != nil {
		switch err.(type) {
		case *errs.NotFoundError:
			return c.handleError(ctx, "Conversation not found", http.StatusNotFound)
		default:
			return c.handleError(ctx, err, http.StatusInternalServerError)
		}
	}

	return ctx.NoContent(http.StatusNoContent)
}

// handleError handles errors and returns them in a consistent format
func (c *ChatController) handleError(ctx echo.Context, err interface{}, statusCode int) error {
	c.logger.Error("Error occurred", zap.Any("error", err))
	return ctx.JSON(statusCode, map[string]interface{}{
		"error": err,
	})
}
