package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/askdoc/askdoc/internal/pkg/response"
)

type AskHandler struct{}

func NewAskHandler() *AskHandler {
	return &AskHandler{}
}

// Ask is a placeholder until retrieval and answer generation land. It is
// registered (and rate limited) so clients can integrate against the route
// today.
func (h *AskHandler) Ask(c *gin.Context) {
	response.Success(c, gin.H{"message": "ask endpoint placeholder"})
}
