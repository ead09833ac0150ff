package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/askdoc/askdoc/internal/pkg/response"
)

type RouterDeps struct {
	Users     *UserHandler
	Documents *DocumentHandler
	Ask       *AskHandler
}

func RegisterRoutes(group *gin.RouterGroup, deps RouterDeps) {
	group.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	group.POST("/users", deps.Users.Create)
	group.GET("/users/:id", deps.Users.Get)
	group.DELETE("/users/:id", deps.Users.Delete)

	group.POST("/documents/presign", deps.Documents.Presign)
	group.POST("/documents/confirm", deps.Documents.Confirm)
	group.POST("/documents/ingest", deps.Documents.Ingest)
	group.GET("/documents", deps.Documents.List)
	group.GET("/documents/:id", deps.Documents.Get)
	group.DELETE("/documents/:id", deps.Documents.Delete)
	group.PUT("/documents/upload-local", deps.Documents.UploadLocal)

	group.POST("/ask", deps.Ask.Ask)
}
