package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is the context key the request id is stored under; the
// request logger, the error funnel and the panic recovery all read it back
// through this constant.
const RequestIDKey = "request_id"

const requestIDHeader = "X-Request-Id"

// RequestID tags every request. A well-formed inbound id is kept so the id
// can follow a request across a proxy; anything else is replaced rather
// than echoed into the logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(RequestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)

		c.Next()
	}
}
