package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/askdoc/askdoc/internal/filestore"
	"github.com/askdoc/askdoc/internal/ingest"
	"github.com/askdoc/askdoc/internal/model"
	appErr "github.com/askdoc/askdoc/internal/pkg/errors"
	"github.com/askdoc/askdoc/internal/pkg/timeutil"
	"github.com/askdoc/askdoc/internal/repo"
)

type DocumentService struct {
	docs      *repo.DocumentRepo
	chunks    *repo.ChunkRepo
	users     *repo.UserRepo
	store     filestore.Store
	runner    *ingest.Runner
	maxPDFMB  int
	uploadTTL time.Duration
}

func NewDocumentService(docs *repo.DocumentRepo, chunks *repo.ChunkRepo, users *repo.UserRepo, store filestore.Store, runner *ingest.Runner, maxPDFMB int, uploadTTL time.Duration) *DocumentService {
	return &DocumentService{
		docs:      docs,
		chunks:    chunks,
		users:     users,
		store:     store,
		runner:    runner,
		maxPDFMB:  maxPDFMB,
		uploadTTL: uploadTTL,
	}
}

type PresignInput struct {
	Filename    string
	ContentType string
	SizeMB      float64
}

type PresignResult struct {
	DocumentID string `json:"document_id"`
	StorageKey string `json:"storage_key"`
	UploadURL  string `json:"upload_url"`
	Method     string `json:"method"`
}

// Presign creates a pending document and hands back where to PUT the bytes.
func (s *DocumentService) Presign(ctx context.Context, userID string, input PresignInput) (*PresignResult, error) {
	if userID == "" || input.Filename == "" {
		return nil, appErr.ErrInvalid
	}
	if !strings.HasSuffix(strings.ToLower(input.Filename), ".pdf") {
		return nil, appErr.ErrInvalid
	}
	contentType := input.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	if contentType != "application/pdf" {
		return nil, appErr.ErrInvalid
	}
	if s.maxPDFMB > 0 && input.SizeMB > float64(s.maxPDFMB) {
		return nil, appErr.ErrFileTooLarge
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	docID := uuid.NewString()
	key := docID + ".pdf"
	url, method, err := s.store.PresignPut(ctx, key, contentType, s.uploadTTL)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}
	doc := &model.Document{
		ID:         docID,
		UserID:     userID,
		Filename:   input.Filename,
		StorageKey: key,
		Status:     model.DocumentStatusPending,
		CreatedAt:  timeutil.NowUnix(),
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}
	return &PresignResult{
		DocumentID: docID,
		StorageKey: key,
		UploadURL:  url,
		Method:     method,
	}, nil
}

// Confirm verifies the object landed in storage and flips pending ->
// uploaded. Confirming an already-uploaded document is a no-op.
func (s *DocumentService) Confirm(ctx context.Context, userID, docID string) error {
	doc, err := s.docs.GetForUser(ctx, userID, docID)
	if err != nil {
		return err
	}
	exists, err := s.store.Exists(ctx, doc.StorageKey)
	if err != nil {
		return fmt.Errorf("check storage: %w", err)
	}
	if !exists {
		return appErr.ErrInvalid
	}
	ok, err := s.docs.TransitionStatus(ctx, docID, model.DocumentStatusPending, model.DocumentStatusUploaded)
	if err != nil {
		return err
	}
	if !ok && doc.Status != model.DocumentStatusUploaded {
		return appErr.ErrConflict
	}
	return nil
}

// TriggerIngest flips uploaded -> processing and hands the document to the
// background runner. The compare-and-swap is what guarantees a single run
// in flight per document: a second trigger loses the swap and conflicts.
func (s *DocumentService) TriggerIngest(ctx context.Context, userID, docID string) error {
	if _, err := s.docs.GetForUser(ctx, userID, docID); err != nil {
		return err
	}
	ok, err := s.docs.TransitionStatus(ctx, docID, model.DocumentStatusUploaded, model.DocumentStatusProcessing)
	if err != nil {
		return err
	}
	if !ok {
		return appErr.ErrConflict
	}
	if _, err := s.runner.Submit(docID); err != nil {
		logutil.GetLogger(ctx).Error("submit ingestion failed", zap.String("document_id", docID), zap.Error(err))
		// Put the document back so the client can retry the trigger.
		if _, revertErr := s.docs.TransitionStatus(ctx, docID, model.DocumentStatusProcessing, model.DocumentStatusUploaded); revertErr != nil {
			logutil.GetLogger(ctx).Error("revert processing status failed", zap.String("document_id", docID), zap.Error(revertErr))
		}
		return appErr.ErrInternal
	}
	return nil
}

type DocumentDetail struct {
	Document   model.Document `json:"document"`
	ChunkCount int            `json:"chunk_count"`
}

func (s *DocumentService) Get(ctx context.Context, userID, docID string) (*DocumentDetail, error) {
	doc, err := s.docs.GetForUser(ctx, userID, docID)
	if err != nil {
		return nil, err
	}
	count, err := s.chunks.CountByDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	return &DocumentDetail{Document: *doc, ChunkCount: count}, nil
}

func (s *DocumentService) List(ctx context.Context, userID string, limit uint) ([]model.Document, error) {
	if userID == "" {
		return nil, appErr.ErrInvalid
	}
	return s.docs.ListByUser(ctx, userID, limit)
}

func (s *DocumentService) Delete(ctx context.Context, userID, docID string) error {
	return s.docs.Delete(ctx, userID, docID)
}

// SaveLocalUpload is the dev-mode upload target backing local presign URLs.
func (s *DocumentService) SaveLocalUpload(ctx context.Context, key string, r io.Reader) error {
	if key == "" {
		return appErr.ErrInvalid
	}
	return s.store.Save(ctx, key, r)
}
