package middleware

import (
	"log/slog"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/simp-lee/logger"
)

// HeaderRequestID carries the request id on requests and responses.
const HeaderRequestID = "X-Request-ID"

const requestIDKey = "request_id"

// upstreamRequestID is the shape accepted from a trusted proxy.
var upstreamRequestID = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

// RequestID gives every request an id. The id is echoed in the X-Request-ID
// response header, stored on the gin context and attached to each log record
// written with the request context. With trustUpstream set, a well-formed
// incoming X-Request-ID is kept instead of minting a new one.
func RequestID(trustUpstream bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if !trustUpstream || !upstreamRequestID.MatchString(id) {
			id = uuid.NewString()
		}

		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		ctx := logger.WithContextAttrs(c.Request.Context(), slog.String(requestIDKey, id))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestIDFrom returns the id RequestID assigned, or "" outside it.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
