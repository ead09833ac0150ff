package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/askdoc/askdoc/internal/config"
)

type geminiConfig struct {
	APIKey string `json:"api_key"`
}

type geminiEmbedder struct {
	apiKey    string
	model     string
	dimension int
}

func init() {
	Register("gemini", createGeminiEmbedder)
}

func createGeminiEmbedder(cfg config.AIConfig) (IEmbedder, error) {
	args := &geminiConfig{}
	if err := decodeConfig(cfg.Data, args); err != nil {
		return nil, err
	}
	return &geminiEmbedder{
		apiKey:    args.APIKey,
		model:     cfg.Model,
		dimension: cfg.Dimension,
	}, nil
}

func (e *geminiEmbedder) ModelName() string {
	return e.model
}

func (e *geminiEmbedder) Dimension() int {
	return e.dimension
}

func (e *geminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if e.apiKey == "" {
		return nil, ErrUnavailable
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts to embed")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  e.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, &genai.Content{Parts: []*genai.Part{{Text: text}}})
	}
	dim := int32(e.dimension)
	resp, err := client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType:             "RETRIEVAL_DOCUMENT",
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embeddings: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini embeddings: got %d vectors for %d inputs", len(resp.Embeddings), len(texts))
	}
	out := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("gemini embeddings: empty vector for input %d", i)
		}
		out[i] = emb.Values
	}
	return out, nil
}
