package embed

import (
	"context"
	"hash/fnv"
	"math"
)

// Mock is a deterministic, offline [Embedder] for tests and local use.
//
// Texts registered via [Mock.SetVector] return their hand-tuned vector;
// anything else gets a pseudo-vector derived from an FNV hash of the text.
// Identical input always yields an identical vector, which the recall
// determinism tests rely on.
type Mock struct {
	dim     int
	vectors map[string][]float32
}

var _ Embedder = (*Mock)(nil)

// NewMock creates a mock embedder producing vectors of the given dimension.
func NewMock(dim int) *Mock {
	if dim <= 0 {
		dim = 8
	}
	return &Mock{
		dim:     dim,
		vectors: make(map[string][]float32),
	}
}

// SetVector registers a fixed vector for a text. The vector is padded or
// truncated to the mock's dimension.
func (m *Mock) SetVector(text string, vec []float32) {
	cp := make([]float32, m.dim)
	copy(cp, vec)
	m.vectors[text] = cp
}

func (m *Mock) Embed(_ context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	if v, ok := m.vectors[text]; ok {
		cp := make([]float32, len(v))
		copy(cp, v)
		return cp, nil
	}
	return hashVector(text, m.dim), nil
}

func (m *Mock) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vecs[i] = v
	}
	return vecs, nil
}

func (m *Mock) Dimension() int { return m.dim }

// hashVector spreads FNV-1a hashes of the text across the vector so that
// different texts land in different directions while the mapping stays
// stable across processes.
func hashVector(text string, dim int) []float32 {
	vec := make([]float32, dim)
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	var norm float64
	for i := range vec {
		// xorshift-style mixing per dimension.
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		v := float32(int64(seed%2000)-1000) / 1000.0
		vec[i] = v
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}
