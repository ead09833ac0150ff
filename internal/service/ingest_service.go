package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/askdoc/askdoc/internal/ai"
	"github.com/askdoc/askdoc/internal/filestore"
	"github.com/askdoc/askdoc/internal/ingest"
	"github.com/askdoc/askdoc/internal/model"
	appErr "github.com/askdoc/askdoc/internal/pkg/errors"
)

// Failure messages persisted verbatim (modulo the length cap) when a
// document produces nothing to index.
const (
	msgNoTextExtracted  = "No text extracted from PDF"
	msgNoChunksProduced = "No chunks produced after extraction"
)

// DocumentStore is the slice of the document repo the pipeline needs.
type DocumentStore interface {
	GetByID(ctx context.Context, docID string) (*model.Document, error)
	TransitionStatus(ctx context.Context, docID, from, to string) (bool, error)
	MarkReady(ctx context.Context, docID string, pageCount int) error
	MarkFailed(ctx context.Context, docID, message string) error
}

// ChunkStore persists a document's chunk set as one atomic replacement.
type ChunkStore interface {
	ReplaceForDocument(ctx context.Context, docID string, chunks []model.DocumentChunk) error
}

// IngestService runs the extraction -> chunking -> embedding -> persistence
// pipeline for one document at a time. Every failure is absorbed into the
// document row; Run never returns anything because nothing awaits it.
type IngestService struct {
	docs      DocumentStore
	chunks    ChunkStore
	store     filestore.Store
	extractor ingest.Extractor
	embedder  ai.IEmbedder
	chunker   *ingest.Chunker
	now       func() int64
	newID     func() string
}

func NewIngestService(docs DocumentStore, chunks ChunkStore, store filestore.Store, extractor ingest.Extractor, embedder ai.IEmbedder, chunkCfg ingest.ChunkConfig) *IngestService {
	return &IngestService{
		docs:      docs,
		chunks:    chunks,
		store:     store,
		extractor: extractor,
		embedder:  embedder,
		chunker:   ingest.NewChunker(chunkCfg),
		now:       func() int64 { return time.Now().Unix() },
		newID:     func() string { return uuid.NewString() },
	}
}

// Run executes one ingestion for the document. The document is expected to
// be in processing already (the trigger's compare-and-swap put it there).
// All step failures funnel into exactly one place that persists the failed
// status, on an independent context so a dead request context cannot lose
// the failure path.
func (s *IngestService) Run(ctx context.Context, documentID string) {
	logger := logutil.GetLogger(ctx).With(zap.String("document_id", documentID))

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("ingestion panicked", zap.Any("panic", rec))
			s.persistFailure(documentID, fmt.Sprintf("panic: %v", rec))
		}
	}()

	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, appErr.ErrNotFound) {
			// Deleted between trigger and run; nothing left to update.
			logger.Info("document gone before ingestion, skipping")
			return
		}
		logger.Error("load document failed", zap.Error(err))
		s.persistFailure(documentID, err.Error())
		return
	}

	start := time.Now()
	if err := s.run(ctx, doc); err != nil {
		logger.Error("ingestion failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		s.persistFailure(documentID, err.Error())
		return
	}
	logger.Info("ingestion completed", zap.Duration("duration", time.Since(start)))
}

func (s *IngestService) run(ctx context.Context, doc *model.Document) error {
	logger := logutil.GetLogger(ctx).With(zap.String("document_id", doc.ID))

	data, err := s.download(ctx, doc.StorageKey)
	if err != nil {
		return fmt.Errorf("download document: %w", err)
	}

	pages, err := s.extractor.Pages(ctx, data)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}
	textPages := make([]ingest.Page, 0, len(pages))
	for _, page := range pages {
		if strings.TrimSpace(page.Text) != "" {
			textPages = append(textPages, page)
		}
	}
	if len(textPages) == 0 {
		return errors.New(msgNoTextExtracted)
	}

	chunks := s.chunker.Chunk(textPages)
	if len(chunks) == 0 {
		return errors.New(msgNoChunksProduced)
	}
	logger.Info("document chunked",
		zap.Int("pages", len(textPages)),
		zap.Int("chunks", len(chunks)),
	)

	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		texts = append(texts, chunk.Text)
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("create embeddings: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("create embeddings: got %d vectors for %d chunks", len(vectors), len(chunks))
	}
	if dim := s.embedder.Dimension(); dim > 0 {
		for i, vec := range vectors {
			if len(vec) != dim {
				return fmt.Errorf("create embeddings: vector %d has dimension %d, want %d", i, len(vec), dim)
			}
		}
	}

	now := s.now()
	records := make([]model.DocumentChunk, 0, len(chunks))
	for i, chunk := range chunks {
		records = append(records, model.DocumentChunk{
			ID:         s.newID(),
			DocumentID: doc.ID,
			ChunkIndex: i,
			Content:    chunk.Text,
			PageNumber: chunk.PageNumber,
			Embedding:  vectors[i],
			CreatedAt:  now,
		})
	}
	if err := s.chunks.ReplaceForDocument(ctx, doc.ID, records); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}

	if err := s.docs.MarkReady(ctx, doc.ID, len(textPages)); err != nil {
		return fmt.Errorf("mark ready: %w", err)
	}
	return nil
}

func (s *IngestService) download(ctx context.Context, key string) ([]byte, error) {
	reader, err := s.store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

// persistFailure records the failed status on a fresh context: the run's own
// context may be canceled or otherwise unusable by the time we get here.
func (s *IngestService) persistFailure(documentID, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.docs.MarkFailed(ctx, documentID, message); err != nil {
		logutil.GetLogger(ctx).Error("persist ingestion failure status failed",
			zap.String("document_id", documentID),
			zap.Error(err),
		)
	}
}
