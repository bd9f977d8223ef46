// Package middleware provides HTTP middleware for the POS backend.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorCodeKey is where handlers leave the error code of a failed request
const ErrorCodeKey = "error_code"

// Span attribute keys
const (
	AttrRequestID  = attribute.Key("pos.request_id")
	AttrOperatorID = attribute.Key("pos.operator_id")
	AttrRole       = attribute.Key("pos.operator_role")
	AttrErrorCode  = attribute.Key("pos.error_code")
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// Provider overrides the global tracer provider; tests use it
	Provider trace.TracerProvider
}

// Tracing returns the otelgin middleware. The span name is the route pattern,
// e.g. "POST /api/v1/quick-sales/lines". Health checks are not traced.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	opts := []otelgin.Option{
		otelgin.WithGinFilter(func(c *gin.Context) bool {
			return c.FullPath() != "/health" && c.FullPath() != "/api/v1/health"
		}),
	}
	if cfg.Provider != nil {
		opts = append(opts, otelgin.WithTracerProvider(cfg.Provider))
	}
	return otelgin.Middleware(cfg.ServiceName, opts...)
}

// SpanEnricher tags the active span with the request id and the operator,
// then records the outcome. It must run after JWTAuthMiddleware.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		if id := GetRequestID(c); id != "" {
			span.SetAttributes(AttrRequestID.String(id))
		}
		if actor := GetActor(c); !actor.IsZero() {
			span.SetAttributes(
				AttrOperatorID.String(actor.OperatorID.String()),
				AttrRole.String(string(actor.Role)),
			)
		}

		c.Next()

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		if code := c.GetString(ErrorCodeKey); code != "" {
			span.SetAttributes(AttrErrorCode.String(code))
		}
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
