package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/askdoc/askdoc/internal/ai"
)

// WrapLruCacheToEmbedder memoizes embeddings by content hash so re-ingesting
// a document does not pay for unchanged chunks twice. A nil-safe no-op when
// caching is disabled.
func WrapLruCacheToEmbedder(e ai.IEmbedder, size int, ttl time.Duration) ai.IEmbedder {
	if e == nil || size <= 0 || ttl <= 0 {
		return e
	}
	return &lruEmbedder{
		next:  e,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type lruEmbedder struct {
	next  ai.IEmbedder
	cache *expirable.LRU[string, []float32]
}

func (l *lruEmbedder) ModelName() string {
	return l.next.ModelName()
}

func (l *lruEmbedder) Dimension() int {
	return l.next.Dimension()
}

func (l *lruEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	missing := make([]string, 0, len(texts))
	missingIdx := make([]int, 0, len(texts))
	for i, text := range texts {
		if cached, ok := l.cache.Get(l.cacheKey(text)); ok {
			out[i] = cloneEmbedding(cached)
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		logutil.GetLogger(ctx).Debug("embedding batch fully cached", zap.Int("texts", len(texts)))
		return out, nil
	}
	vectors, err := l.next.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for i, vec := range vectors {
		out[missingIdx[i]] = vec
		l.cache.Add(l.cacheKey(missing[i]), cloneEmbedding(vec))
	}
	logutil.GetLogger(ctx).Debug("embedding batch cached",
		zap.Int("texts", len(texts)),
		zap.Int("misses", len(missing)),
	)
	return out, nil
}

func (l *lruEmbedder) cacheKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return l.next.ModelName() + ":" + hex.EncodeToString(hash[:])
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
