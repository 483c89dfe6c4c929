// Package handlers wires HTTP and websocket requests to the services.
package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"assurbot/internal/config"
	"assurbot/internal/metrics"
	"assurbot/internal/models"
	"assurbot/internal/services/chat"
)

// Visitor action types accepted over the websocket.
const (
	actionOpen       = "open"
	actionText       = "text"
	actionSuggestion = "suggestion"
	actionOption     = "option"
	actionForm       = "form"
	actionState      = "state"
	actionClose      = "close"
)

// visitorAction is one inbound websocket frame.
type visitorAction struct {
	Type   string            `json:"type"`
	Text   string            `json:"text,omitempty"`
	Form   models.FormValues `json:"form,omitempty"`
	Option string            `json:"option,omitempty"`
}

// serverFrame is one outbound websocket frame.
type serverFrame struct {
	Type        string                       `json:"type"` // update, state, script, error
	Update      *chat.Update                 `json:"update,omitempty"`
	State       *models.ConversationSnapshot `json:"state,omitempty"`
	Suggestions []string                     `json:"suggestions,omitempty"`
	Error       string                       `json:"error,omitempty"`
}

// ChatHandler serves the conversational widget over a websocket.
type ChatHandler struct {
	chatService *chat.Service
	upgrader    websocket.Upgrader
	metrics     *metrics.Metrics
	logger      *logrus.Logger
}

// NewChatHandler creates the websocket chat handler.
func NewChatHandler(chatService *chat.Service, wsCfg config.WebSocketConfig,
	m *metrics.Metrics, logger *logrus.Logger) *ChatHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &ChatHandler{
		chatService: chatService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  wsCfg.ReadBufferSize,
			WriteBufferSize: wsCfg.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		metrics: m,
		logger:  logger,
	}
}

// wsClient serializes writes to one websocket connection.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) send(frame serverFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(frame)
}

// HandleWebSocket upgrades the connection and runs one widget session.
// Opening the socket opens the session (welcome message); closing it, or
// an explicit close action, discards the conversation entirely.
func (h *ChatHandler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	sessionID := c.Query("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	client := &wsClient{conn: conn}
	logger := h.logger.WithField("session_id", sessionID)

	session := h.chatService.Open(sessionID, func(update chat.Update) {
		if h.metrics != nil {
			h.metrics.WSMessagesOut.Inc()
		}
		if err := client.send(serverFrame{Type: "update", Update: &update}); err != nil {
			logger.WithError(err).Debug("Failed to push update")
		}
	})
	if h.metrics != nil {
		h.metrics.SessionsOpen.Inc()
	}
	// Hand the widget its quick suggestions right away.
	_ = client.send(serverFrame{Type: "script", Suggestions: h.chatService.Script().QuickSuggestions})

	defer func() {
		h.chatService.Close(sessionID)
		if h.metrics != nil {
			h.metrics.SessionsOpen.Dec()
		}
		conn.Close()
	}()

	for {
		var action visitorAction
		if err := conn.ReadJSON(&action); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WithError(err).Debug("Websocket read failed")
			}
			return
		}
		if h.metrics != nil {
			h.metrics.WSMessagesIn.Inc()
		}

		if action.Type == actionClose {
			return
		}
		if err := h.dispatch(session, client, action); err != nil {
			_ = client.send(serverFrame{Type: "error", Error: err.Error()})
		}
	}
}

func (h *ChatHandler) dispatch(session *chat.Session, client *wsClient, action visitorAction) error {
	switch action.Type {
	case actionOpen:
		// Re-opening is idempotent; the welcome is never duplicated.
		session.Open()
		return nil
	case actionText:
		return session.SubmitText(action.Text)
	case actionSuggestion:
		return session.SelectSuggestion(action.Text)
	case actionOption:
		return session.SelectOption(action.Option)
	case actionForm:
		return session.SubmitForm(action.Form)
	case actionState:
		snapshot := session.Snapshot()
		return client.send(serverFrame{Type: "state", State: &snapshot})
	default:
		h.logger.WithField("type", action.Type).Warn("Unknown visitor action")
		return nil
	}
}
