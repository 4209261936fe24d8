package tracing

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/catalog/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Keys written by the catalog handlers and the rate limit middleware.
const (
	filterCountKey        = "filter_count"
	rateLimitReasonHeader = "X-Rate-Limited-Reason"
)

// GinMiddleware opens a server span per request. Catalog reads carry the
// number of property filters, and throttled requests record the limit reason.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer("catalog/http")
	return func(c *gin.Context) {
		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		method := strings.ToUpper(c.Request.Method)
		ctx, span := tracer.Start(ctx, "HTTP "+method, trace.WithSpanKind(trace.SpanKindServer))
		if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
			span.SetAttributes(attribute.String("request_id", requestID))
		}

		c.Request = c.Request.WithContext(ctx)
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		span.SetName("HTTP " + method + " " + route)
		span.SetAttributes(SafeAttributes(requestAttributes(c, route, status, time.Since(start))...)...)

		switch {
		case status == http.StatusTooManyRequests:
			span.AddEvent("rate_limited", trace.WithAttributes(
				attribute.String("catalog.rate_limit_reason", c.Writer.Header().Get(rateLimitReasonHeader)),
			))
		case status >= http.StatusInternalServerError:
			if lastErr := c.Errors.Last(); lastErr != nil {
				if safeErr := SafeError(lastErr.Err); safeErr != nil {
					span.RecordError(safeErr)
				}
			}
			span.SetStatus(codes.Error, "request error")
		}
		span.End()
	}
}

func requestAttributes(c *gin.Context, route string, status int, elapsed time.Duration) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", c.Request.Method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
		attribute.Int64("http.server_duration_ms", elapsed.Milliseconds()),
	}
	if filters := c.GetInt(filterCountKey); filters > 0 {
		attrs = append(attrs, attribute.Int("catalog.filter_count", filters))
	}
	return attrs
}
