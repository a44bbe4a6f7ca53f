package notification

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"labreserve/internal/domain"
	"labreserve/internal/pkg/jwt"
	"labreserve/internal/pkg/response"
	"labreserve/internal/repository"
)

type InboxReader interface {
	ListByUser(ctx context.Context, userID int64, limit int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkAsRead(ctx context.Context, id, userID int64) error
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients come from the SPA origin; tokens gate access.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type HTTPHandler struct {
	inbox InboxReader
	hub   *Hub
	jwt   *jwt.Service
	log   *zap.Logger
}

func NewHTTPHandler(inbox InboxReader, hub *Hub, jwtService *jwt.Service, log *zap.Logger) *HTTPHandler {
	return &HTTPHandler{inbox: inbox, hub: hub, jwt: jwtService, log: log}
}

// RegisterRoutes mounts the inbox endpoints on an authenticated group.
func (h *HTTPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/notifications", h.List)
	rg.PATCH("/notifications/:id/read", h.MarkAsRead)
}

// RegisterSocket mounts the websocket endpoint. Browsers cannot set headers
// on the upgrade request, so the token travels in the query string.
func (h *HTTPHandler) RegisterSocket(r gin.IRouter) {
	r.GET("/ws", h.Socket)
}

func (h *HTTPHandler) List(c *gin.Context) {
	userID := c.GetInt64("user_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	items, err := h.inbox.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	unread, err := h.inbox.CountUnread(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"notifications": items,
		"unread_count":  unread,
	})
}

func (h *HTTPHandler) MarkAsRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid notification ID")
		return
	}

	err = h.inbox.MarkAsRead(c.Request.Context(), id, c.GetInt64("user_id"))
	if errors.Is(err, repository.ErrNotFound) {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Notification not found")
		return
	}
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id, "is_read": true})
}

func (h *HTTPHandler) Socket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Token is required")
		return
	}
	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	userID := claims.UserID
	h.hub.Register(userID, conn)
	h.log.Debug("websocket connected", zap.Int64("user_id", userID))
	defer func() {
		h.hub.Unregister(userID, conn)
		h.log.Debug("websocket disconnected", zap.Int64("user_id", userID))
	}()

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	stop := make(chan struct{})
	defer close(stop)
	go h.pingLoop(userID, conn, stop)

	// The socket is push-only; reads just drive pong handling and detect close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket read failed", zap.Int64("user_id", userID), zap.Error(err))
			}
			return
		}
	}
}

func (h *HTTPHandler) pingLoop(userID int64, conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := h.hub.ping(userID, conn); err != nil {
				return
			}
		}
	}
}
