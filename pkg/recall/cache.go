package recall

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/thotsl4yer69/sentient-core/pkg/embed"
)

// DefaultFlushThreshold is the pending-buffer size that triggers a merge
// into the matrix.
const DefaultFlushThreshold = 10

// State is the cache lifecycle: Unloaded → Loading → Loaded.
type State int32

const (
	Unloaded State = iota
	Loading
	Loaded
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return "unloaded"
	}
}

// Cache is the in-process vector cache and search engine over an [Index].
//
// Row i of the matrix corresponds to ids[i] and to meta[ids[i]]; the three
// always have equal size outside the guarded sections — a violation is a
// bug, not a recoverable condition. Rows are unit-normalized once at
// load/merge time so a search is a plain dot-product pass.
//
// All mutation happens under one mutex: pending append-and-maybe-flush is
// a single atomic section, and Load holds the lock for its full duration
// so no search can observe a half-built matrix. Searches issued while the
// cache is not Loaded are served by a sequential scan of the durable tier
// that ranks identically.
type Cache struct {
	idx      *Index
	embedder embed.Embedder
	log      *slog.Logger
	flushAt  int

	mu      sync.Mutex
	state   State
	rows    [][]float32
	ids     []string
	meta    map[string]*Memory // records held without embeddings
	pending []pendingRow
}

type pendingRow struct {
	vec []float32 // unit-normalized
	mem Memory    // embedding already dropped
}

// CacheConfig configures a new [Cache].
type CacheConfig struct {
	// Index is the durable episodic tier. Required.
	Index *Index

	// Embedder turns query text into vectors. Required.
	Embedder embed.Embedder

	// FlushThreshold is the pending-buffer size that triggers a merge.
	// Default DefaultFlushThreshold.
	FlushThreshold int

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// NewCache creates an unloaded cache. Call [Cache.Load] to bootstrap it
// from the durable tier; until then searches use the sequential fallback.
func NewCache(cfg CacheConfig) *Cache {
	flushAt := cfg.FlushThreshold
	if flushAt <= 0 {
		flushAt = DefaultFlushThreshold
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Cache{
		idx:      cfg.Index,
		embedder: cfg.Embedder,
		log:      log,
		flushAt:  flushAt,
		meta:     make(map[string]*Memory),
	}
}

// Load bootstraps the cache from the durable tier: it enumerates the time
// index, batch-fetches the records, and builds the normalized matrix in
// enumeration (chronological) order. Records that fail to decode or carry
// no embedding are skipped with a warning.
//
// The cache lock is held for the whole load; concurrent searches fall back
// to the sequential path meanwhile.
func (c *Cache) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = Loading
	entries, err := c.idx.Entries(ctx)
	if err != nil {
		c.state = Unloaded
		return fmt.Errorf("recall: load cache: %w", err)
	}
	mems, err := c.idx.Fetch(ctx, entries)
	if err != nil {
		c.state = Unloaded
		return fmt.Errorf("recall: load cache: %w", err)
	}

	rows := make([][]float32, 0, len(mems))
	ids := make([]string, 0, len(mems))
	meta := make(map[string]*Memory, len(mems))
	for _, mem := range mems {
		if len(mem.Embedding) == 0 {
			c.log.Warn("episodic record has no embedding, not cached", "id", mem.Interaction.ID)
			continue
		}
		rows = append(rows, normalize(mem.Embedding))
		ids = append(ids, mem.Interaction.ID)
		stripped := mem.WithoutEmbedding()
		meta[mem.Interaction.ID] = &stripped
	}

	c.rows = rows
	c.ids = ids
	c.meta = meta
	// Anything buffered before or during the load is already durable and
	// was just re-read from the store.
	c.pending = nil
	c.state = Loaded
	c.log.Info("vector cache loaded", "rows", len(rows))
	return nil
}

// Append buffers a freshly stored record for the cache. The embedding is
// normalized once here; the buffer is merged into the matrix as one block
// when it reaches the flush threshold.
func (c *Cache) Append(mem *Memory) {
	if len(mem.Embedding) == 0 {
		return
	}
	row := pendingRow{
		vec: normalize(mem.Embedding),
		mem: mem.WithoutEmbedding(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, row)
	if len(c.pending) >= c.flushAt {
		c.flushLocked()
	}
}

// FlushPending merges any buffered rows into the matrix immediately.
func (c *Cache) FlushPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushLocked()
}

// flushLocked merges the pending buffer as one block. Caller holds c.mu.
//
// Before the cache is loaded the buffer just accumulates: the records are
// already durable, and Load rebuilds the matrix from the store anyway.
func (c *Cache) flushLocked() {
	if c.state != Loaded || len(c.pending) == 0 {
		return
	}
	block := make([][]float32, 0, len(c.pending))
	for i := range c.pending {
		mem := c.pending[i].mem
		if _, ok := c.meta[mem.Interaction.ID]; ok {
			// Rewrite of an already-cached exchange: same ID, same
			// vector. Keeping the existing row preserves alignment.
			continue
		}
		block = append(block, c.pending[i].vec)
		c.ids = append(c.ids, mem.Interaction.ID)
		c.meta[mem.Interaction.ID] = &mem
	}
	// One concatenation for the whole block, never row by row.
	c.rows = append(c.rows, block...)
	c.pending = c.pending[:0]
}

// Search embeds the query and returns the top-limit records by cosine
// similarity, subject to the query's similarity floor and tag/time
// filters. Ties rank by insertion order. An empty result is not an error.
func (c *Cache) Search(ctx context.Context, q SearchQuery) ([]ScoredMemory, error) {
	q = q.normalized()

	qvec, err := c.embedder.Embed(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("recall: embed query: %w", err)
	}
	qvec = normalize(qvec)

	c.mu.Lock()
	if c.state != Loaded {
		c.mu.Unlock()
		return c.searchScan(ctx, q, qvec)
	}
	// Read-before-write consistency: everything stored so far must be
	// visible to this search.
	c.flushLocked()
	defer c.mu.Unlock()

	var hits []ScoredMemory
	for i, row := range c.rows {
		sim := dot(row, qvec)
		mem := c.meta[c.ids[i]]
		if !q.keeps(sim, mem) {
			continue
		}
		hits = append(hits, ScoredMemory{Memory: *mem, Similarity: sim})
	}
	return rank(hits, q.Limit), nil
}

// searchScan is the sequential fallback: it walks the durable tier in time
// index order, scoring one record at a time. Candidate order matches the
// matrix row order, so ranking (including tie order) matches the
// vectorized path.
func (c *Cache) searchScan(ctx context.Context, q SearchQuery, qvec []float32) ([]ScoredMemory, error) {
	entries, err := c.idx.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("recall: fallback scan: %w", err)
	}
	mems, err := c.idx.Fetch(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("recall: fallback scan: %w", err)
	}

	var hits []ScoredMemory
	for _, mem := range mems {
		if len(mem.Embedding) == 0 {
			continue
		}
		sim := dot(normalize(mem.Embedding), qvec)
		if !q.keeps(sim, mem) {
			continue
		}
		hits = append(hits, ScoredMemory{Memory: mem.WithoutEmbedding(), Similarity: sim})
	}
	return rank(hits, q.Limit), nil
}

// keeps applies the similarity floor and the tag/time filters.
func (q SearchQuery) keeps(sim float64, mem *Memory) bool {
	if sim < *q.MinSimilarity {
		return false
	}
	if len(q.Tags) > 0 && !hasAnyTag(mem.Tags, q.Tags) {
		return false
	}
	if q.After > 0 && mem.StoredAt < q.After {
		return false
	}
	if q.Before > 0 && mem.StoredAt > q.Before {
		return false
	}
	return true
}

// rank sorts by similarity descending with a stable sort, so equal scores
// keep their candidate (insertion) order, then truncates to limit.
func rank(hits []ScoredMemory, limit int) []ScoredMemory {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// CacheStats is a point-in-time snapshot for diagnostics.
type CacheStats struct {
	State State `json:"state"`
	// Rows counts searchable entries: matrix rows plus the pending buffer.
	Rows int `json:"rows"`
	// Pending is the current pending-buffer size.
	Pending int `json:"pending"`
	// SizeBytes approximates the matrix footprint (vectors only).
	SizeBytes int64 `json:"size_bytes"`
}

// Stats reports the cache's load state and footprint.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var bytes int64
	for _, row := range c.rows {
		bytes += int64(len(row)) * 4
	}
	for _, row := range c.pending {
		bytes += int64(len(row.vec)) * 4
	}
	return CacheStats{
		State:     c.state,
		Rows:      len(c.rows) + len(c.pending),
		Pending:   len(c.pending),
		SizeBytes: bytes,
	}
}

// hasAnyTag reports whether tags contains at least one of wanted.
func hasAnyTag(tags, wanted []string) bool {
	for _, w := range wanted {
		for _, t := range tags {
			if t == w {
				return true
			}
		}
	}
	return false
}

// normalize returns a unit-length copy of vec. A zero vector is returned
// as a zero copy (its dot product with anything is 0).
func normalize(vec []float32) []float32 {
	cp := make([]float32, len(vec))
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return cp
	}
	inv := 1 / math.Sqrt(norm)
	for i, v := range vec {
		cp[i] = float32(float64(v) * inv)
	}
	return cp
}

// dot computes the inner product in float64 for stable accumulation.
// With both sides unit-normalized this is the cosine similarity. A row
// whose dimension does not match the query (a record embedded at a
// different width) scores 0 rather than a truncated product, so it can
// never outrank a genuine match.
func dot(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
