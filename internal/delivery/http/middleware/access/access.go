package http_access_middleware

import (
	"net/http"

	"github.com/coderacer/core/internal/config"
	"github.com/gin-gonic/gin"
)

// ReadOnlyBadGatewayMiddleware rejects every non-GET request when the instance
// runs as a read replica.
func ReadOnlyBadGatewayMiddleware(mode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if mode != config.ModeRO {
			c.Next()
			return
		}

		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Bad Gateway",
			"message": "Write operations not allowed on read-only instance",
			"code":    "READ_ONLY_INSTANCE",
		})
		c.Abort()
	}
}
