package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/kodechat/chatbot/internal/domain/entities"
	"github.com/kodechat/chatbot/internal/domain/errs"
	"github.com/kodechat/chatbot/internal/domain/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ChatHub fans persisted turn messages out to websocket clients
// subscribed to a conversation id.
type ChatHub struct {
	logger      *zap.Logger
	connections map[string][]*websocket.Conn
	register    chan registration
	unregister  chan unregistration
	broadcast   chan broadcastMessage
}

type registration struct {
	ConversationID string
	conn           *websocket.Conn
}

type unregistration struct {
	ConversationID string
	conn           *websocket.Conn
}

type broadcastMessage struct {
	ConversationID string
	messages       []*entities.Message
}

func NewChatHub(logger *zap.Logger) *ChatHub {
	return &ChatHub{
		logger:      logger,
		connections: make(map[string][]*websocket.Conn),
		register:    make(chan registration),
		unregister:  make(chan unregistration),
		broadcast:   make(chan broadcastMessage),
	}
}

func (h *ChatHub) Run() {
	for {
		select {
		case reg := <-h.register:
			h.connections[reg.ConversationID] = append(h.connections[reg.ConversationID], reg.conn)
		case unreg := <-h.unregister:
			if conns, ok := h.connections[unreg.ConversationID]; ok {
				for i, conn := range conns {
					if conn == unreg.conn {
						h.connections[unreg.ConversationID] = append(conns[:i], conns[i+1:]...)
						break
					}
				}
				if len(h.connections[unreg.ConversationID]) == 0 {
					delete(h.connections, unreg.ConversationID)
				}
			}
		case msg := <-h.broadcast:
			for _, conn := range h.connections[msg.ConversationID] {
				for _, message := range msg.messages {
					if err := conn.WriteJSON(message); err != nil {
						h.logger.Warn("Websocket write error", zap.Error(err))
						go func(c *websocket.Conn) {
							h.unregister <- unregistration{msg.ConversationID, c}
						}(conn)
						break
					}
				}
			}
		}
	}
}

// TurnListener is wired to the turn event bus in main.
func (h *ChatHub) TurnListener(conversationID string, messages []*entities.Message) {
	h.broadcast <- broadcastMessage{conversationID, messages}
}

// Handler upgrades the connection and streams new messages for the
// requested conversation until the client disconnects.
func (h *ChatHub) Handler(conversations services.ConversationService) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		conversationID := ctx.QueryParam("conversation_id")
		if conversationID == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "Missing conversation_id")
		}

		if _, err := conversations.GetConversation(ctx.Request().Context(), conversationID); err != nil {
			if _, ok := err.(*errs.NotFoundError); ok {
				return echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}

		conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
		if err != nil {
			h.logger.Warn("Websocket upgrade error", zap.Error(err))
			return nil
		}
		defer conn.Close()

		h.register <- registration{conversationID, conn}
		defer func() {
			h.unregister <- unregistration{conversationID, conn}
		}()

		// Hold the connection open; clients only receive.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return nil
			}
		}
	}
}
