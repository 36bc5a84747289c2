package security

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is the gin context key (and response header) every
// downstream middleware and handler reads the correlation ID from,
// shared with pkg/ratelimit's middleware.
const RequestIDKey = "request_id"

// RequestIDHeader is the inbound/outbound header name.
const RequestIDHeader = "X-Request-ID"

// CorrelationID assigns a request ID, preferring one the caller
// supplied (so the Gateway can thread its own request ID through to
// the Location Service it calls, per spec §6) and otherwise minting a
// UUID.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
