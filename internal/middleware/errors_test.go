package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPanicRouter(environment string) *gin.Engine {
	engine := gin.New()
	engine.Use(ErrorHandler(zerolog.Nop(), environment), Recovery(zerolog.Nop()))
	engine.GET("/api/v1/boom", func(*gin.Context) {
		panic("boom handler blew up")
	})
	return engine
}

func TestErrorHandler_PanicInDevelopment(t *testing.T) {
	t.Parallel()

	router := newPanicRouter("development")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/boom", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"status":"error"`)
	assert.Contains(t, body, "Something went wrong")
	// Development discloses the cause and the captured stack.
	assert.Contains(t, body, "boom handler blew up")
	assert.Contains(t, body, `"stack"`)
	assert.Contains(t, body, "goroutine")
}

func TestErrorHandler_PanicInProduction(t *testing.T) {
	t.Parallel()

	router := newPanicRouter("production")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/boom", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Something went wrong")
	assert.NotContains(t, body, "boom handler blew up")
	assert.NotContains(t, body, `"stack"`)
	assert.NotContains(t, body, "goroutine")
}
