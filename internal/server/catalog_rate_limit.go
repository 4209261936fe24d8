package server

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/catalog/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/catalog/internal/observability/metrics"
	"github.com/smallbiznis/catalog/internal/ratelimit"
	"go.uber.org/zap"
)

const rateLimitReasonClientRate = "client-rate"

// CatalogRateLimit throttles catalog reads per client IP. Limiter failures
// surface as 503 rather than letting traffic through unmetered.
func (s *Server) CatalogRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		endpoint := normalizeRateLimitEndpoint(c)

		res, err := s.limiter.AllowClient(ctx, c.ClientIP())
		if err != nil {
			logger.FromContext(ctx).Warn("catalog rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			denyCatalogRateLimit(c, endpoint, res, s.obsMetrics)
			return
		}

		recordRateLimitAllowed(ctx, endpoint, s.obsMetrics)
		c.Next()
	}
}

func denyCatalogRateLimit(c *gin.Context, endpoint string, res *ratelimit.Result, metrics *obsmetrics.Metrics) {
	ctx := c.Request.Context()
	logger.FromContext(ctx).Warn("catalog rate limit exceeded",
		zap.String("reason", rateLimitReasonClientRate),
		zap.String("endpoint", endpoint),
	)
	recordRateLimitDenied(ctx, endpoint, rateLimitReasonClientRate, metrics)

	c.Header("Retry-After", retryAfterSeconds(res))
	c.Header("X-Rate-Limited-Reason", rateLimitReasonClientRate)
	AbortWithError(c, ErrRateLimited)
}

func retryAfterSeconds(res *ratelimit.Result) string {
	seconds := int(math.Ceil(res.RetryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}

func recordRateLimitAllowed(ctx context.Context, endpoint string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitAllowed(ctx, endpoint)
}

func recordRateLimitDenied(ctx context.Context, endpoint, reason string, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimitDenied(ctx, endpoint, reason)
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
