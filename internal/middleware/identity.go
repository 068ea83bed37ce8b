package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	UserIDHeader    = "X-User-ID"

	RequestIDKey = "request_id"
	UserIDKey    = "userID"
)

// RequestIdentity tags every request with a request id and, when the edge
// proxy forwarded one, the caller's user id. Authentication happens upstream.
func RequestIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
			c.Request.Header.Set(RequestIDHeader, requestID)
		}
		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		if header := c.GetHeader(UserIDHeader); header != "" {
			if userID, err := strconv.Atoi(header); err == nil && userID > 0 {
				c.Set(UserIDKey, userID)
			}
		}
		c.Next()
	}
}
