package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/askdoc/askdoc/internal/pkg/errcode"
	"github.com/askdoc/askdoc/internal/pkg/response"
)

const headerDemoKey = "X-Demo-Key"

// DemoGate protects a shared demo deployment with a single pre-shared key.
// With no key configured the gate is open; health stays public either way.
func DemoGate(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" || strings.HasSuffix(c.Request.URL.Path, "/health") {
			c.Next()
			return
		}
		supplied := c.GetHeader(headerDemoKey)
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(key)) != 1 {
			response.Error(c, errcode.ErrUnauthorized, "missing or invalid "+headerDemoKey)
			c.Abort()
			return
		}
		c.Next()
	}
}
