package ai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/askdoc/askdoc/internal/config"
)

type openAIConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

type openAIEmbedder struct {
	client    *openai.Client
	apiKey    string
	model     string
	dimension int
}

func init() {
	Register("openai", createOpenAIEmbedder)
}

func createOpenAIEmbedder(cfg config.AIConfig) (IEmbedder, error) {
	args := &openAIConfig{}
	if err := decodeConfig(cfg.Data, args); err != nil {
		return nil, err
	}
	clientCfg := openai.DefaultConfig(args.APIKey)
	if args.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(args.BaseURL, "/")
	}
	return &openAIEmbedder{
		client:    openai.NewClientWithConfig(clientCfg),
		apiKey:    args.APIKey,
		model:     cfg.Model,
		dimension: cfg.Dimension,
	}, nil
}

func (e *openAIEmbedder) ModelName() string {
	return e.model
}

func (e *openAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *openAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if e.apiKey == "" {
		return nil, ErrUnavailable
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts to embed")
	}
	req := openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	}
	// Older embedding models reject the dimensions parameter.
	if strings.HasPrefix(e.model, "text-embedding-3") {
		req.Dimensions = e.dimension
	}
	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}
	// Pair vectors back by the response index, never by response order.
	out := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, fmt.Errorf("openai embeddings: index %d out of range", item.Index)
		}
		out[item.Index] = item.Embedding
	}
	for i, vec := range out {
		if vec == nil {
			return nil, fmt.Errorf("openai embeddings: missing vector for input %d", i)
		}
	}
	return out, nil
}
