package http_access_middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newEngine(mode string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(ReadOnlyBadGatewayMiddleware(mode))
	engine.GET("/rooms", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.POST("/rooms", func(c *gin.Context) { c.Status(http.StatusCreated) })
	return engine
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	engine := newEngine("RO")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/rooms", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "READ_ONLY_INSTANCE")

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rooms", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadWritePassesThrough(t *testing.T) {
	engine := newEngine("RW")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/rooms", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
}
