package response

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
)

// codeErr carries a wire error code through proxyutil, which renders it as
// {"code": ..., "msg": ...} in the JSON envelope.
type codeErr struct {
	code uint32
	msg  string
}

func (e codeErr) Code() uint32 {
	return e.code
}

func (e codeErr) Error() string {
	return e.msg
}

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, 200, codeErr{code: uint32(code), msg: message})
}
