package http_room

import (
	"log/slog"
	"net/http"

	http_common "github.com/coderacer/core/internal/delivery/http/common"
	http_identity_middleware "github.com/coderacer/core/internal/delivery/http/middleware/identity"
	ws_room "github.com/coderacer/core/internal/delivery/ws/room"
	"github.com/coderacer/core/internal/model"
	usecase_room "github.com/coderacer/core/internal/usecase/room"
	"github.com/gin-gonic/gin"
)

type Controller struct {
	uc       *usecase_room.Usecase
	hub      *ws_room.Hub
	identity *http_identity_middleware.Middleware

	logger *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(uc *usecase_room.Usecase,
	hub *ws_room.Hub,
	identity *http_identity_middleware.Middleware,
	opts ...ControllerOption) *Controller {
	c := &Controller{
		uc:       uc,
		hub:      hub,
		identity: identity,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/rooms/:code/exists", c.exists)

	rooms := router.Group("/rooms", c.identity.Required())
	rooms.POST("", c.create)
	rooms.GET("/:code", c.state)
	rooms.DELETE("/:code", c.delete)
	rooms.POST("/:code/participants", c.join)
	rooms.DELETE("/:code/participants/me", c.leave)
	rooms.POST("/:code/start", c.start)
	rooms.POST("/:code/progress", c.progress)
	rooms.POST("/:code/finish", c.finish)
	rooms.POST("/:code/rematch", c.rematch)
}

func (c *Controller) fail(ctx *gin.Context, op string, err error) {
	status := http_common.Status(err)
	if status == http.StatusInternalServerError {
		c.logger.Error("room operation failed",
			slog.String("op", op),
			slog.String("room", ctx.Param("code")),
			slog.String("error", err.Error()),
		)
	}
	ctx.JSON(status, http_common.NewErrorResponse(err))
}

// CreateRoomRequestDTO selects the snippet and capacity. All fields optional.
type CreateRoomRequestDTO struct {
	SnippetID  *int64 `json:"snippet_id"`
	Language   string `json:"language"`
	MaxPlayers int    `json:"max_players"`
}

type CreateRoomResponseDTO struct {
	RoomCode   string `json:"room_code"`
	Status     string `json:"status"`
	MaxPlayers int    `json:"max_players"`
	HostUserID string `json:"host_user_id"`
	SnippetID  int64  `json:"snippet_id"`
}

// @Summary Create a room
// @Description Creates a waiting room hosted by the caller, who becomes its first participant
// @Tags Rooms
// @Accept json
// @Produce json
// @Param request body CreateRoomRequestDTO false "Snippet selection and capacity"
// @Success 201 {object} CreateRoomResponseDTO
// @Failure 404 {object} http_common.ErrorResponse "Unknown user or no matching snippet"
// @Failure 500 {object} http_common.ErrorResponse
// @Router /rooms [post]
func (c *Controller) create(ctx *gin.Context) {
	var req CreateRoomRequestDTO
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
				Message: "invalid request format",
			})
			return
		}
	}

	room, err := c.uc.CreateRoom(ctx.Request.Context(), usecase_room.CreateRoomParams{
		HostID: http_identity_middleware.UserID(ctx),
		Selector: model.SnippetSelector{
			ID:       req.SnippetID,
			Language: req.Language,
		},
		MaxPlayers: req.MaxPlayers,
	})
	if err != nil {
		c.fail(ctx, "create", err)
		return
	}
	c.hub.RoomCreated(room)

	ctx.JSON(http.StatusCreated, CreateRoomResponseDTO{
		RoomCode:   room.Code,
		Status:     string(room.Status),
		MaxPlayers: room.MaxPlayers,
		HostUserID: room.HostUserID,
		SnippetID:  room.SnippetID,
	})
}

// @Summary Room details
// @Description Room, participants in join order and the race text
// @Tags Rooms
// @Param code path string true "Room code"
// @Success 200 {object} model.RoomState
// @Failure 404 {object} http_common.ErrorResponse
// @Router /rooms/{code} [get]
func (c *Controller) state(ctx *gin.Context) {
	state, err := c.uc.RoomState(ctx.Request.Context(), ctx.Param("code"))
	if err != nil {
		c.fail(ctx, "state", err)
		return
	}
	ctx.JSON(http.StatusOK, state)
}

func (c *Controller) exists(ctx *gin.Context) {
	ok, err := c.uc.RoomExists(ctx.Request.Context(), ctx.Param("code"))
	if err != nil {
		c.fail(ctx, "exists", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"exists": ok})
}

// @Summary Delete a room
// @Tags Rooms
// @Param code path string true "Room code"
// @Success 204
// @Failure 403 {object} http_common.ErrorResponse "Caller is not the host"
// @Failure 404 {object} http_common.ErrorResponse
// @Router /rooms/{code} [delete]
func (c *Controller) delete(ctx *gin.Context) {
	res, err := c.uc.DeleteRoom(ctx.Request.Context(), ctx.Param("code"), http_identity_middleware.UserID(ctx))
	if err != nil {
		c.fail(ctx, "delete", err)
		return
	}
	c.hub.RoomDeleted(ctx.Request.Context(), res)

	ctx.Status(http.StatusNoContent)
}

type JoinRequestDTO struct {
	Username string `json:"username"`
}

// @Summary Join a room
// @Tags Participants
// @Accept json
// @Param code path string true "Room code"
// @Param request body JoinRequestDTO false "Display name override"
// @Success 201 {object} model.JoinResult
// @Failure 400 {object} http_common.ErrorResponse "Race already started"
// @Failure 404 {object} http_common.ErrorResponse
// @Failure 409 {object} http_common.ErrorResponse "Already joined or room is full"
// @Router /rooms/{code}/participants [post]
func (c *Controller) join(ctx *gin.Context) {
	var req JoinRequestDTO
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
				Message: "invalid request format",
			})
			return
		}
	}

	username := req.Username
	if username == "" {
		username = http_identity_middleware.Username(ctx)
	}

	res, err := c.uc.Join(ctx.Request.Context(), ctx.Param("code"), http_identity_middleware.UserID(ctx), username)
	if err != nil {
		c.fail(ctx, "join", err)
		return
	}
	c.hub.PlayerJoined(ctx.Request.Context(), res)

	ctx.JSON(http.StatusCreated, res)
}

func (c *Controller) leave(ctx *gin.Context) {
	res, err := c.uc.Leave(ctx.Request.Context(), ctx.Param("code"), http_identity_middleware.UserID(ctx))
	if err != nil {
		c.fail(ctx, "leave", err)
		return
	}
	c.hub.PlayerLeft(ctx.Request.Context(), res)

	ctx.JSON(http.StatusOK, res)
}

// @Summary Start the race
// @Tags Rooms
// @Param code path string true "Room code"
// @Success 200 {object} model.Room
// @Failure 400 {object} http_common.ErrorResponse "Room is not waiting"
// @Failure 403 {object} http_common.ErrorResponse "Caller is not the host"
// @Router /rooms/{code}/start [post]
func (c *Controller) start(ctx *gin.Context) {
	room, err := c.uc.StartRoom(ctx.Request.Context(), ctx.Param("code"), http_identity_middleware.UserID(ctx))
	if err != nil {
		c.fail(ctx, "start", err)
		return
	}
	c.hub.GameStarted(ctx.Request.Context(), room)

	ctx.JSON(http.StatusOK, room)
}

type ProgressRequestDTO struct {
	Progress int     `json:"progress"`
	WPM      float64 `json:"wpm"`
	Accuracy float64 `json:"accuracy"`
}

func (c *Controller) progress(ctx *gin.Context) {
	var req ProgressRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request format",
		})
		return
	}

	res, err := c.uc.UpdateProgress(ctx.Request.Context(), usecase_room.ProgressUpdate{
		Code:     ctx.Param("code"),
		UserID:   http_identity_middleware.UserID(ctx),
		Progress: req.Progress,
		WPM:      req.WPM,
		Accuracy: req.Accuracy,
	})
	if err != nil {
		c.fail(ctx, "progress", err)
		return
	}
	c.hub.ProgressUpdated(ctx.Request.Context(), res)

	ctx.JSON(http.StatusOK, res.Participant)
}

type FinishRequestDTO struct {
	WPM      float64 `json:"wpm"`
	Accuracy float64 `json:"accuracy"`
}

// @Summary Finish the race
// @Description Records final stats and assigns the next finish position
// @Tags Participants
// @Param code path string true "Room code"
// @Param request body FinishRequestDTO true "Final stats"
// @Success 200 {object} model.FinishResult
// @Failure 400 {object} http_common.ErrorResponse "Already finished or race not running"
// @Router /rooms/{code}/finish [post]
func (c *Controller) finish(ctx *gin.Context) {
	var req FinishRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.ErrorResponse{
			Message: "invalid request format",
		})
		return
	}

	res, err := c.uc.Finish(ctx.Request.Context(), usecase_room.FinishRequest{
		Code:     ctx.Param("code"),
		UserID:   http_identity_middleware.UserID(ctx),
		WPM:      req.WPM,
		Accuracy: req.Accuracy,
	})
	if err != nil {
		c.fail(ctx, "finish", err)
		return
	}
	c.hub.PlayerFinished(ctx.Request.Context(), res)

	ctx.JSON(http.StatusOK, res)
}

func (c *Controller) rematch(ctx *gin.Context) {
	res, err := c.uc.Rematch(ctx.Request.Context(), ctx.Param("code"), http_identity_middleware.UserID(ctx))
	if err != nil {
		c.fail(ctx, "rematch", err)
		return
	}
	c.hub.Rematched(ctx.Request.Context(), res)

	ctx.JSON(http.StatusOK, res)
}
