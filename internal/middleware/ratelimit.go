package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/askdoc/askdoc/internal/ratelimit"
)

// HeaderUserID carries the caller identity. Authenticating it is someone
// else's job; the limiter only needs a stable principal.
const HeaderUserID = "X-User-ID"

// pathToRoute maps normalized request paths to logical route names the
// limiter knows about. Paths not listed here are never rate limited.
var pathToRoute = map[string]string{
	"/ask":               "ask",
	"/documents/ingest":  "documents/ingest",
	"/documents/presign": "documents/presign",
	"/documents/confirm": "documents/confirm",
}

func RateLimit(limiter *ratelimit.Limiter, apiPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		route, ok := routeForPath(c.Request.URL.Path, apiPrefix)
		if !ok {
			c.Next()
			return
		}
		policy, tracked := limiter.Policy(route)
		if !tracked {
			c.Next()
			return
		}

		userID := c.GetHeader(HeaderUserID)
		identity := ratelimit.Identity(userID, c.ClientIP())
		allowed, retryAfter := limiter.Check(identity, route)
		if allowed {
			c.Next()
			return
		}

		logutil.GetLogger(c.Request.Context()).Warn("rate limit hit",
			zap.String("route", route),
			zap.String("identity", identity),
			zap.Int("retry_after", retryAfter),
		)
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"detail":              "Rate limit exceeded",
			"retry_after_seconds": retryAfter,
			"limit":               policy.Limit,
			"window":              windowName(policy.Window),
		})
	}
}

func routeForPath(path, apiPrefix string) (string, bool) {
	if apiPrefix != "" {
		path = strings.TrimPrefix(path, apiPrefix)
	}
	path = strings.TrimRight(path, "/")
	if path == "" {
		path = "/"
	}
	route, ok := pathToRoute[path]
	return route, ok
}

func windowName(window time.Duration) string {
	if window == time.Hour {
		return "hour"
	}
	return "day"
}
