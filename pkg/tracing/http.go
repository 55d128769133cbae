package tracing

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"greeter/pkg/logging"
)

// GinMiddleware starts a server span per request and copies its trace id
// into the request context for logging.
func GinMiddleware(serviceName string) gin.HandlersChain {
	return gin.HandlersChain{
		otelgin.Middleware(serviceName),
		func(c *gin.Context) {
			if traceID := TraceID(c.Request.Context()); traceID != "" {
				c.Request = c.Request.WithContext(logging.WithTraceID(c.Request.Context(), traceID))
			}
			c.Next()
		},
	}
}
