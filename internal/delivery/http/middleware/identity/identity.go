package http_identity_middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	http_common "github.com/coderacer/core/internal/delivery/http/common"
	"github.com/gin-gonic/gin"
)

const (
	HeaderUserID   = "X-user-id"
	HeaderUsername = "X-username"

	userIDKey   = "identity.user_id"
	usernameKey = "identity.username"
)

// Middleware trusts the identity forwarded by the upstream auth gateway.
type Middleware struct {
	logger *slog.Logger
}

func New() *Middleware {
	return &Middleware{
		logger: slog.Default(),
	}
}

func (m *Middleware) Required() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID := ctx.GetHeader(HeaderUserID)
		if userID == "" {
			m.logger.Warn("request without identity", slog.String("path", ctx.FullPath()))
			ctx.JSON(http.StatusUnauthorized, http_common.ErrorResponse{
				Message: fmt.Sprintf("no %s header", HeaderUserID),
			})
			ctx.Abort()
			return
		}

		ctx.Set(userIDKey, userID)
		ctx.Set(usernameKey, ctx.GetHeader(HeaderUsername))
		ctx.Next()
	}
}

func UserID(ctx *gin.Context) string {
	return ctx.GetString(userIDKey)
}

func Username(ctx *gin.Context) string {
	return ctx.GetString(usernameKey)
}
