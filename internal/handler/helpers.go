package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/askdoc/askdoc/internal/pkg/errcode"
	appErr "github.com/askdoc/askdoc/internal/pkg/errors"
	"github.com/askdoc/askdoc/internal/pkg/response"
)

// getUserID reads the caller identity from the X-User-ID header. The header
// is populated by the gateway in front of this service.
func getUserID(c *gin.Context) string {
	return c.GetHeader("X-User-ID")
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case appErr.IsNotFound(err):
		response.Error(c, errcode.ErrNotFound, "not found")
	case err == appErr.ErrForbidden:
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case err == appErr.ErrInvalid:
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case err == appErr.ErrFileTooLarge:
		response.Error(c, errcode.ErrFileTooLarge, "file too large")
	case appErr.IsConflict(err):
		response.Error(c, errcode.ErrConflict, "conflict")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
