package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"trailbook/api/internal/apperror"
)

// ErrorHandler is the single funnel every failed request passes through.
// Handlers attach errors with c.Error and abort; this middleware normalizes
// the last one into the uniform payload: JSON for API paths, a rendered
// error page for everything else. Development mode discloses the cause,
// production replaces non-operational errors with a generic message.
func ErrorHandler(log zerolog.Logger, environment string) gin.HandlerFunc {
	development := environment != "production"

	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := apperror.Classify(c.Errors.Last().Err)

		if !err.Operational() {
			log.Error().
				Err(err.Err).
				Str("request_id", c.GetString(RequestIDKey)).
				Str("path", c.Request.URL.Path).
				Msg("non-operational error")
		}

		statusWord := "fail"
		if err.Status >= 500 {
			statusWord = "error"
		}

		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			body := gin.H{
				"status":  statusWord,
				"message": err.Message,
			}
			if development {
				body["error"] = err.Error()
				if len(err.Stack) > 0 {
					body["stack"] = string(err.Stack)
				}
			}
			c.JSON(err.Status, body)
			return
		}

		msg := err.Message
		if development && err.Err != nil {
			msg = err.Error()
		}
		c.HTML(err.Status, "error.html", gin.H{
			"title": "Something went wrong!",
			"msg":   msg,
		})
	}
}

// NotFoundHandler covers unrouted paths with the same normalized shape.
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = c.Error(apperror.NotFound("Route " + c.Request.URL.Path + " not found"))
		c.Abort()
	}
}

// BodyLimit caps JSON request bodies; multipart uploads are exempt since
// image payloads go through their own size checks.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		ct := c.GetHeader("Content-Type")
		if !strings.HasPrefix(ct, "multipart/form-data") {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
