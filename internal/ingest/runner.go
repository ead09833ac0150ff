package ingest

import (
	"context"
	"fmt"

	"github.com/panjf2000/ants/v2"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// RunFunc executes one ingestion run for a document. It must absorb all of
// its own failures; nothing downstream observes a return value.
type RunFunc func(ctx context.Context, documentID string)

// Runner executes ingestion runs off the request path on a bounded worker
// pool. Submit returns a channel closed when the run finishes, so callers
// that want a completion signal (tests, future requeue logic) have one;
// the HTTP trigger simply discards it.
type Runner struct {
	pool *ants.Pool
	run  RunFunc
}

func NewRunner(poolSize int, run RunFunc) (*Runner, error) {
	if run == nil {
		return nil, fmt.Errorf("run func is required")
	}
	if poolSize < 1 {
		poolSize = 1
	}
	// Nonblocking keeps Submit from parking the caller when every worker is
	// busy; a saturated pool surfaces ants.ErrPoolOverload instead.
	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &Runner{pool: pool, run: run}, nil
}

func (r *Runner) Submit(documentID string) (<-chan struct{}, error) {
	done := make(chan struct{})
	err := r.pool.Submit(func() {
		defer close(done)
		ctx := context.Background()
		defer func() {
			if rec := recover(); rec != nil {
				logutil.GetLogger(ctx).Error("ingestion run panicked",
					zap.String("document_id", documentID),
					zap.Any("panic", rec),
				)
			}
		}()
		r.run(ctx, documentID)
	})
	if err != nil {
		close(done)
		return nil, err
	}
	return done, nil
}

func (r *Runner) Release() {
	r.pool.Release()
}
