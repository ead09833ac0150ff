package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/askdoc/askdoc/internal/pkg/errcode"
	"github.com/askdoc/askdoc/internal/pkg/response"
	"github.com/askdoc/askdoc/internal/service"
)

type DocumentHandler struct {
	documents *service.DocumentService
}

func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

type presignRequest struct {
	Filename    string  `json:"filename"`
	ContentType string  `json:"content_type"`
	SizeMB      float64 `json:"size_mb"`
}

func (h *DocumentHandler) Presign(c *gin.Context) {
	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	result, err := h.documents.Presign(c.Request.Context(), getUserID(c), service.PresignInput{
		Filename:    req.Filename,
		ContentType: req.ContentType,
		SizeMB:      req.SizeMB,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

type confirmRequest struct {
	DocumentID string `json:"document_id"`
}

func (h *DocumentHandler) Confirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.DocumentID == "" {
		response.Error(c, errcode.ErrInvalid, "document_id required")
		return
	}
	if err := h.documents.Confirm(c.Request.Context(), getUserID(c), req.DocumentID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

type ingestRequest struct {
	DocumentID string `json:"document_id"`
}

func (h *DocumentHandler) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.DocumentID == "" {
		response.Error(c, errcode.ErrInvalid, "document_id required")
		return
	}
	if err := h.documents.TriggerIngest(c.Request.Context(), getUserID(c), req.DocumentID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "processing"})
}

func (h *DocumentHandler) List(c *gin.Context) {
	limit := uint(0)
	if value := c.Query("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			limit = uint(parsed)
		}
	}
	docs, err := h.documents.List(c.Request.Context(), getUserID(c), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"documents": docs})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	detail, err := h.documents.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, detail)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// UploadLocal accepts the PUT that a local-store presign URL points at.
// Production deployments upload straight to S3 and never hit this route.
func (h *DocumentHandler) UploadLocal(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		response.Error(c, errcode.ErrInvalid, "key required")
		return
	}
	if err := h.documents.SaveLocalUpload(c.Request.Context(), key, c.Request.Body); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}
