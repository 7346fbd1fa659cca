// Package memory ranks the user's long-term memories against the live
// conversation and exposes the save_memory backend.
package memory

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultEmbeddingModel is used when no model is configured.
const DefaultEmbeddingModel = "gemini-embedding-001"

// embeddingTaskType tunes the vectors for similarity ranking rather
// than retrieval.
const embeddingTaskType = "SEMANTIC_SIMILARITY"

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GenAIEmbedder embeds text with the Gemini embedding API.
type GenAIEmbedder struct {
	client *genai.Client
	model  string
}

// NewGenAIEmbedder creates an embedder backed by the Gemini API.
func NewGenAIEmbedder(ctx context.Context, apiKey, model string) (*GenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}
	if model == "" {
		model = DefaultEmbeddingModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}
	return &GenAIEmbedder{client: client, model: model}, nil
}

// Embed generates the embedding for a single text.
func (e *GenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}
	result, err := e.client.Models.EmbedContent(ctx, e.model, contents,
		&genai.EmbedContentConfig{TaskType: embeddingTaskType})
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("embed: no embeddings returned")
	}
	return result.Embeddings[0].Values, nil
}
