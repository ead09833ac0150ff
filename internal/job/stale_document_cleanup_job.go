package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/askdoc/askdoc/internal/repo"
)

// StaleDocumentCleanupJob removes pending documents whose upload was never
// confirmed. Their storage keys were presigned but may hold no object, so
// only the rows are reaped.
type StaleDocumentCleanupJob struct {
	docs   *repo.DocumentRepo
	maxAge time.Duration
}

func NewStaleDocumentCleanupJob(docs *repo.DocumentRepo, maxAge time.Duration) *StaleDocumentCleanupJob {
	return &StaleDocumentCleanupJob{docs: docs, maxAge: maxAge}
}

func (j *StaleDocumentCleanupJob) Name() string {
	return "stale_document_cleanup"
}

func (j *StaleDocumentCleanupJob) Run(ctx context.Context) error {
	if j.docs == nil {
		return nil
	}
	maxAge := j.maxAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	cutoff := time.Now().Add(-maxAge).Unix()
	removed, err := j.docs.DeleteStalePending(ctx, cutoff)
	if err != nil {
		return err
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("stale pending documents removed", zap.Int64("count", removed))
	}
	return nil
}
