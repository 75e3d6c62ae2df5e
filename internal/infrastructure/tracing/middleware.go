package tracing

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// RequestIDHeader carries the request id between the shell and the server.
const RequestIDHeader = "X-Request-ID"

// HTTPMiddleware spans every request and echoes the request id back so
// the shell can correlate follow-up calls and log lines.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if reqID := c.GetHeader(RequestIDHeader); reqID != "" {
			ctx = WithRequestID(ctx, reqID)
		}

		span, ctx := tracer.Start(ctx, c.FullPath())
		span.Tag("http.method", c.Request.Method)
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, span.RequestID())

		c.Next()

		span.Status(c.Writer.Status())
		span.Tag("http.status", strconv.Itoa(c.Writer.Status()))
		if len(c.Errors) > 0 {
			span.Fail(c.Errors.Last())
		}
		span.End()
	}
}
