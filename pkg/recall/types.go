// Package recall provides the episodic memory tier and its semantic search
// engine.
//
// An [Index] owns the durable episodic population: one msgpack record per
// remembered exchange plus a time-ordered index used for range queries and
// enumeration order. A [Cache] is a derived, rebuildable projection of that
// population: a matrix of unit-normalized embeddings held in process so a
// search is a single pass of dot products.
//
// # Write path
//
// New records go record → time index → cache pending buffer, in that order.
// A crash between steps leaves an orphaned durable record, never a corrupt
// cache. Pending rows are merged into the matrix as one block — either when
// the buffer reaches its flush threshold or right before a search — so the
// matrix never grows one row at a time.
//
// # Search
//
// When the cache is loaded, search scores every row against the normalized
// query vector (cosine similarity, both sides pre-normalized), masks by
// minimum similarity, tags, and stored-at range, and returns the top-limit
// rows by similarity with ties broken by row order. When the cache is not
// loaded, a sequential scan over the durable tier produces the same ranking.
package recall

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrNotFound is returned when an episodic record does not exist.
	ErrNotFound = errors.New("recall: not found")
)

// Interaction is one conversational exchange. Immutable once created.
type Interaction struct {
	// UserText and AssistantText are the two sides of the exchange.
	UserText      string `json:"user_text" msgpack:"user_text"`
	AssistantText string `json:"assistant_text" msgpack:"assistant_text"`

	// Timestamp is Unix seconds with fractional precision.
	Timestamp float64 `json:"timestamp" msgpack:"timestamp"`

	// Importance is the heuristic durability score in [0,1].
	Importance float64 `json:"importance" msgpack:"importance"`

	// ID is derived deterministically from the texts and timestamp, so the
	// same logical exchange always maps to the same identifier.
	ID string `json:"id" msgpack:"id"`
}

// NewInteraction builds an Interaction with its derived ID.
func NewInteraction(userText, assistantText string, ts, importance float64) Interaction {
	return Interaction{
		UserText:      userText,
		AssistantText: assistantText,
		Timestamp:     ts,
		Importance:    importance,
		ID:            InteractionID(userText, assistantText, ts),
	}
}

// InteractionID derives the stable identifier for an exchange: a truncated
// SHA-256 over the texts and timestamp. Identical inputs always produce the
// identical ID.
func InteractionID(userText, assistantText string, ts float64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x1f%s\x1f%.6f", userText, assistantText, ts)))
	return hex.EncodeToString(sum[:8])
}

// Memory is an episodic record: one Interaction plus its embedding, tags,
// and optional free-form context.
type Memory struct {
	Interaction Interaction `json:"interaction" msgpack:"interaction"`

	// Embedding is an owned copy of the exchange's embedding vector.
	// Omitted from search results to keep payloads small.
	Embedding []float32 `json:"embedding,omitempty" msgpack:"embedding,omitempty"`

	// Tags are topical labels from the tag heuristics. Order carries no
	// meaning; they are stored sorted for determinism.
	Tags []string `json:"tags,omitempty" msgpack:"tags,omitempty"`

	// Context is an optional free-form mapping attached by the caller.
	Context map[string]any `json:"context,omitempty" msgpack:"context,omitempty"`

	// StoredAt is the Unix-seconds time the record entered the episodic
	// tier. Time-range search filters on this field.
	StoredAt float64 `json:"stored_at" msgpack:"stored_at"`
}

// WithoutEmbedding returns a copy of the memory with the embedding dropped.
func (m *Memory) WithoutEmbedding() Memory {
	cp := *m
	cp.Embedding = nil
	return cp
}

// ScoredMemory pairs a search result with its raw cosine similarity.
type ScoredMemory struct {
	Memory     Memory  `json:"memory"`
	Similarity float64 `json:"similarity"`
}

// SearchQuery specifies parameters for [Cache.Search].
type SearchQuery struct {
	// Text is the query to embed and score against the population.
	Text string

	// Limit is the maximum number of results. Default 5.
	Limit int

	// MinSimilarity drops rows scoring below it. Nil selects
	// DefaultMinSimilarity; set it with Floor (an explicit zero floor is
	// honored) or to NoMinSimilarity to disable the floor.
	MinSimilarity *float64

	// Tags keeps only records carrying at least one of these tags.
	// Empty means no tag filter.
	Tags []string

	// After and Before bound StoredAt in Unix seconds, inclusive.
	// Zero values mean unbounded.
	After  float64
	Before float64
}

// DefaultMinSimilarity is the floor applied when a query does not set one.
const DefaultMinSimilarity = 0.5

// Floor returns a similarity floor for [SearchQuery.MinSimilarity].
func Floor(v float64) *float64 { return &v }

// NoMinSimilarity disables the similarity floor (useful for diagnostics):
// cosine similarity never drops below -1, so nothing is filtered.
var NoMinSimilarity = Floor(-2)

// normalized returns the query with defaults applied.
func (q SearchQuery) normalized() SearchQuery {
	if q.Limit <= 0 {
		q.Limit = 5
	}
	if q.MinSimilarity == nil {
		q.MinSimilarity = Floor(DefaultMinSimilarity)
	}
	return q
}
