package memory

import (
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/thotsl4yer69/sentient-core/pkg/embed"
	"github.com/thotsl4yer69/sentient-core/pkg/events"
	"github.com/thotsl4yer69/sentient-core/pkg/jsontime"
	"github.com/thotsl4yer69/sentient-core/pkg/kv"
	"github.com/thotsl4yer69/sentient-core/pkg/recall"
)

// Defaults for [Config].
const (
	DefaultWorkingCap    = 20
	DefaultWorkingTTL    = time.Hour
	DefaultMinImportance = 0.5
)

var (
	// ErrEmbedding wraps embedding-provider failures. The working-tier
	// write survives; only the episodic path is abandoned.
	ErrEmbedding = errors.New("memory: embedding failed")

	// ErrNotFound is returned by CoreGet for an unknown fact key.
	ErrNotFound = errors.New("memory: not found")
)

// StoreResult reports what a Store call did with an exchange.
type StoreResult struct {
	// InteractionID is the deterministic ID of the recorded exchange.
	InteractionID string `json:"interaction_id"`

	// Importance is the heuristic score in [0,1].
	Importance float64 `json:"importance"`

	// StoredEpisodic reports whether a durable episodic record was
	// created.
	StoredEpisodic bool `json:"stored_episodic"`

	// EpisodicErr is non-nil when the episodic path was attempted and
	// failed. The working-tier write has still succeeded in that case.
	EpisodicErr error `json:"-"`
}

// WorkingStats describes the working tier.
type WorkingStats struct {
	Count   int               `json:"count"`
	MaxSize int               `json:"max_size"`
	TTL     jsontime.Duration `json:"ttl"`
}

// EpisodicStats describes the durable episodic tier.
type EpisodicStats struct {
	Count         int     `json:"count"`
	MinImportance float64 `json:"min_importance"`
}

// CoreStats describes the core fact tier.
type CoreStats struct {
	Count int `json:"count"`
}

// Stats is a point-in-time snapshot across all tiers and the cache.
type Stats struct {
	Working  WorkingStats      `json:"working"`
	Episodic EpisodicStats     `json:"episodic"`
	Core     CoreStats         `json:"core"`
	Cache    recall.CacheStats `json:"cache"`
}

// ConsolidationReport is the read-only output of a consolidation sweep.
// Nothing in the report has been written back to any tier.
type ConsolidationReport struct {
	// Window is the analysis window ending now.
	Window jsontime.Duration `json:"window"`

	// Total is the number of episodic records stored inside the window.
	Total int `json:"total"`

	// ByTag counts records per tag within the window.
	ByTag map[string]int `json:"by_tag,omitempty"`

	// Skipped is true when the window held too few records to analyze.
	Skipped bool `json:"skipped"`
}

// consolidationMinEntries is the smallest recent population worth
// sweeping; below it the sweep is a no-op.
const consolidationMinEntries = 5

// consolidationWindow is how far back the sweep looks.
const consolidationWindow = 24 * time.Hour

var lastMicro atomic.Int64

// nowMicro returns a monotonically increasing Unix microsecond timestamp.
// Microsecond steps survive the round trip through float64 seconds, so
// timestamps assigned here keep their order in the durable time index.
// Extracted as a variable to allow test injection.
var nowMicro = func() int64 {
	now := time.Now().UnixMicro()
	for {
		old := lastMicro.Load()
		next := now
		if next <= old {
			next = old + 1
		}
		if lastMicro.CompareAndSwap(old, next) {
			return next
		}
	}
}

// nowSeconds returns the monotonic clock as Unix seconds.
func nowSeconds() float64 {
	return float64(nowMicro()) / 1e6
}

// Config configures an [Engine].
type Config struct {
	// Store is the backing KV store. Required.
	Store kv.Store

	// Embedder produces vectors for episodic records and queries.
	// Required.
	Embedder embed.Embedder

	// Prefix scopes all engine keys in the store. Default "mem".
	Prefix kv.Key

	// WorkingCap bounds the working tier. Default DefaultWorkingCap.
	WorkingCap int

	// WorkingTTL expires the whole working sequence. Default
	// DefaultWorkingTTL.
	WorkingTTL time.Duration

	// MinImportance gates the episodic tier. Default
	// DefaultMinImportance.
	MinImportance float64

	// FlushThreshold is the vector-cache pending-buffer size that
	// triggers a merge. Default recall.DefaultFlushThreshold.
	FlushThreshold int

	// Sink receives domain events. Default discard.
	Sink events.Sink

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}
