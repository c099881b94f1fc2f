// Package embed provides the text embedding interface for semantic recall.
//
// An Embedder converts text into dense vector representations (embeddings)
// used by the episodic tier's cosine-similarity search.
//
// # Implementations
//
//   - [OpenAI] — OpenAI text-embedding-3-small / text-embedding-3-large
//     (or any OpenAI-compatible provider via WithBaseURL)
//   - [Mock] — deterministic offline embedder for tests and local use
//
// # Quick Start
//
//	e := embed.NewOpenAI("sk-xxx", embed.WithModel(embed.ModelOpenAI3Small))
//	vec, err := e.Embed(ctx, "my name is Jack")
package embed

import (
	"context"
	"errors"
)

// Embedder converts text into dense float32 vectors.
type Embedder interface {
	// Embed returns the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns embedding vectors for multiple texts.
	// Implementations may split large batches into smaller API calls
	// transparently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the dimensionality of the output vectors.
	Dimension() int
}

// Common errors.
var (
	// ErrEmptyInput is returned when the input text is empty.
	ErrEmptyInput = errors.New("embed: empty input")
)
