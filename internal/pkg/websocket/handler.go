package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/app/services"
	"github.com/yigit/schoolyard/internal/app/session"
	"github.com/yigit/schoolyard/internal/middleware"
	"github.com/yigit/schoolyard/internal/pkg/realtime"
)

// Handler upgrades authenticated requests into live sessions
type Handler struct {
	hub           *Hub
	notifications services.NotificationService
	chats         services.ChatService
	subscriber    realtime.Subscriber
	upgrader      websocket.Upgrader
	logger        zerolog.Logger
}

// NewHandler creates a new WebSocket handler. An empty origin list, or one
// containing "*", accepts any origin.
func NewHandler(
	hub *Hub,
	notifications services.NotificationService,
	chats services.ChatService,
	subscriber realtime.Subscriber,
	allowedOrigins []string,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		hub:           hub,
		notifications: notifications,
		chats:         chats,
		subscriber:    subscriber,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return len(set) == 0 || set["*"] || origin == "" || set[origin]
	}
}

func (h *Handler) serve(c *gin.Context, s Session, endpoint string, viewer *session.Viewer) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Close()
		h.logger.Error().
			Err(err).
			Str("endpoint", endpoint).
			Str("profileID", viewer.ProfileID).
			Msg("Failed to upgrade connection to WebSocket")
		return
	}

	newClient(h.hub, conn, s, endpoint, viewer.ProfileID, h.logger).start()

	h.logger.Info().
		Str("endpoint", endpoint).
		Str("profileID", viewer.ProfileID).
		Str("remoteAddr", conn.RemoteAddr().String()).
		Msg("WebSocket connection established")
}

// HandleNotifications godoc
// @Summary Live notification inbox
// @Description Sends a snapshot, then every new notification. Accepts mark_read, mark_all_read and reload commands.
// @Tags notifications, websocket
// @Security BearerAuth
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Router /ws/notifications [get]
func (h *Handler) HandleNotifications(c *gin.Context) {
	viewer := middleware.CurrentViewer(c)
	inbox, err := services.NewNotificationInbox(h.notifications, h.subscriber, viewer, h.logger)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	if err := inbox.Open(c.Request.Context()); err != nil {
		inbox.Close()
		middleware.HandleAPIError(c, err)
		return
	}
	h.serve(c, NewInboxSession(inbox), EndpointNotifications, viewer)
}

// HandleChat godoc
// @Summary Live group chat
// @Description Sends the chat history, then every new message. Accepts send and switch commands.
// @Tags chats, websocket
// @Security BearerAuth
// @Param id path string true "Chat ID"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 403 {object} dto.ErrorResponse "Chat belongs to another school or grade"
// @Failure 404 {object} dto.ErrorResponse "Chat not found"
// @Router /ws/chats/{id} [get]
func (h *Handler) HandleChat(c *gin.Context) {
	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Invalid chat ID").WithField("id")
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	viewer := middleware.CurrentViewer(c)
	room, err := services.NewChatRoom(h.chats, h.subscriber, viewer, h.logger)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}
	if err := room.Switch(c.Request.Context(), chatID.String()); err != nil {
		room.Close()
		middleware.HandleAPIError(c, err)
		return
	}
	h.serve(c, NewChatSession(room), EndpointChats, viewer)
}
