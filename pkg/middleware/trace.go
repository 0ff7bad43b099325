package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const traceIDHeader = "X-Trace-ID"
const requestIDHeader = "X-Request-ID"

// TraceMiddleware adds trace ID and request ID to context
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(traceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}
		requestID := uuid.NewString()

		c.Set("trace_id", traceID)
		c.Set("request_id", requestID)

		c.Header(traceIDHeader, traceID)
		c.Header(requestIDHeader, requestID)

		c.Next()
	}
}
