package ws_room

import (
	"log/slog"
	"net/http"

	"github.com/coderacer/core/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Controller struct {
	hub    *Hub
	logger *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func NewController(hub *Hub, opts ...ControllerOption) *Controller {
	c := &Controller{
		hub:    hub,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/rooms/:code/ws", c.roomWS)
}

// Browsers cannot set headers on a websocket handshake, so identity may also
// come from the query string.
func identity(ctx *gin.Context) (userID, username string) {
	userID = ctx.GetHeader("X-user-id")
	if userID == "" {
		userID = ctx.Query("user_id")
	}
	username = ctx.GetHeader("X-username")
	if username == "" {
		username = ctx.Query("username")
	}
	return userID, username
}

func (c *Controller) roomWS(ctx *gin.Context) {
	code := model.NormalizeCode(ctx.Param("code"))

	userID, username := identity(ctx)
	if userID == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"message": "no user identity"})
		return
	}

	ok, err := c.hub.coordinator.RoomExists(ctx.Request.Context(), code)
	if err != nil {
		c.logger.Error("failed to check room", slog.String("room", code), slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"message": "room not found"})
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.logger.Error("failed to upgrade to websocket",
			slog.String("error", err.Error()),
		)
		return
	}

	NewClient(c.hub, conn, code, userID, username).Serve()
}
