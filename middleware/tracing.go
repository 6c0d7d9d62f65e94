package middleware

import (
	"time"

	"liff-gateway/internal/line"
	"liff-gateway/internal/telemetry"
	"liff-gateway/models"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// IdentityKey is where handlers store the resolved models.Identity.
const IdentityKey = "liff_identity"

// TracingMiddleware provides OpenTelemetry tracing for Gin
func TracingMiddleware() gin.HandlerFunc {
	return otelgin.Middleware("liff-gateway")
}

// EnrichTrace adds request and LINE user attributes to the active span.
func EnrichTrace() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())

		span.SetAttributes(
			attribute.String("request.id", GetRequestID(c)),
			attribute.String("http.client_ip", c.ClientIP()),
			attribute.Bool("liff.in_client", line.IsInClientUserAgent(c.Request.UserAgent())),
		)

		c.Next()

		if v, ok := c.Get(IdentityKey); ok {
			if id, ok := v.(models.Identity); ok {
				span.SetAttributes(attribute.String("user.id", id.UserID))
			}
		}
		span.SetAttributes(attribute.Int("http.response.status_code", c.Writer.Status()))
	}
}

// MetricsMiddleware records request metrics
func MetricsMiddleware(metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		statusStr := "success"
		if c.Writer.Status() >= 400 {
			statusStr = "error"
		}

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordRequest(c.Request.Method, path, statusStr, time.Since(start).Seconds())
	}
}
