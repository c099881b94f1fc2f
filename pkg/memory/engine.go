// Package memory implements the tiered memory engine of the assistant.
//
// The engine owns three tiers backed by one [kv.Store]:
//
//   - Working: a capped, newest-first buffer of recent exchanges with a
//     tier-wide expiry. Every Store call lands here.
//   - Episodic: the durable, searchable population of significant
//     exchanges, managed by [recall.Index] and searched through a
//     [recall.Cache].
//   - Core: a small curated mapping of fact key → JSON value, updated
//     only by explicit calls.
//
// Store is the single write entry point: the exchange is scored by the
// importance heuristics, always recorded in the working tier, and
// promoted to the episodic tier when the score clears the threshold (or
// promotion is forced). The episodic write goes record → time index →
// cache, so a failure mid-way leaves an orphaned durable record rather
// than a corrupt cache.
//
// Every operation emits a domain event through the configured
// [events.Sink]; delivering events anywhere beyond the sink is the
// caller's concern.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/thotsl4yer69/sentient-core/pkg/embed"
	"github.com/thotsl4yer69/sentient-core/pkg/events"
	"github.com/thotsl4yer69/sentient-core/pkg/jsontime"
	"github.com/thotsl4yer69/sentient-core/pkg/kv"
	"github.com/thotsl4yer69/sentient-core/pkg/recall"
)

// Engine is the tiered memory engine. One Engine assumes it is the single
// writer for its keyspace; concurrent reads are safe.
type Engine struct {
	store    kv.Store
	embedder embed.Embedder
	idx      *recall.Index
	cache    *recall.Cache
	sink     events.Sink
	log      *slog.Logger

	prefix        kv.Key
	workingCap    int
	workingTTL    jsontime.Duration
	minImportance float64
}

// New creates an engine from cfg. The cache starts unloaded; call
// [Engine.Load] once the store is reachable to enable vectorized search.
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, errors.New("memory: Config.Store is required")
	}
	if cfg.Embedder == nil {
		return nil, errors.New("memory: Config.Embedder is required")
	}

	prefix := cfg.Prefix
	if len(prefix) == 0 {
		prefix = kv.Key{"mem"}
	}
	workingCap := cfg.WorkingCap
	if workingCap <= 0 {
		workingCap = DefaultWorkingCap
	}
	workingTTL := cfg.WorkingTTL
	if workingTTL <= 0 {
		workingTTL = DefaultWorkingTTL
	}
	minImportance := cfg.MinImportance
	if minImportance <= 0 {
		minImportance = DefaultMinImportance
	}
	sink := cfg.Sink
	if sink == nil {
		sink = events.Nop{}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	idx := recall.NewIndex(cfg.Store, prefix, log)
	cache := recall.NewCache(recall.CacheConfig{
		Index:          idx,
		Embedder:       cfg.Embedder,
		FlushThreshold: cfg.FlushThreshold,
		Logger:         log,
	})

	return &Engine{
		store:         cfg.Store,
		embedder:      cfg.Embedder,
		idx:           idx,
		cache:         cache,
		sink:          sink,
		log:           log,
		prefix:        prefix,
		workingCap:    workingCap,
		workingTTL:    jsontime.Duration(workingTTL),
		minImportance: minImportance,
	}, nil
}

// Load bootstraps the vector cache from the episodic tier. Until it
// succeeds, Recall is served by the sequential fallback.
func (e *Engine) Load(ctx context.Context) error {
	return e.cache.Load(ctx)
}

// Close releases the backing store.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store records one exchange. It always writes the working tier; a failure
// there is returned as an error because it means the exchange was not
// recorded at all. When forceEpisodic is set or the importance score
// clears the threshold, the exchange is also written to the episodic tier;
// a failure on that path is reported in the result (StoredEpisodic false,
// EpisodicErr set), never by failing the call.
func (e *Engine) Store(ctx context.Context, userText, assistantText string, forceEpisodic bool) (*StoreResult, error) {
	ts := nowSeconds()
	inter := recall.NewInteraction(userText, assistantText, ts, Importance(userText, assistantText))

	if err := e.pushWorking(ctx, inter); err != nil {
		return nil, fmt.Errorf("memory: working write: %w", err)
	}
	e.log.Debug("exchange recorded", "summary", Summary(inter))

	res := &StoreResult{
		InteractionID: inter.ID,
		Importance:    inter.Importance,
	}
	if forceEpisodic || inter.Importance >= e.minImportance {
		if err := e.storeEpisodic(ctx, inter); err != nil {
			e.log.Warn("episodic store failed, working write kept",
				"id", inter.ID, "err", err)
			res.EpisodicErr = err
		} else {
			res.StoredEpisodic = true
		}
	}

	e.sink.Emit(ctx, events.New(events.TypeInteractionStored, map[string]any{
		"id":              inter.ID,
		"importance":      inter.Importance,
		"stored_episodic": res.StoredEpisodic,
	}))
	return res, nil
}

// pushWorking prepends the interaction to the working list, trims it to
// the cap, and re-applies the tier-wide expiry.
func (e *Engine) pushWorking(ctx context.Context, inter recall.Interaction) error {
	list, err := e.workingList(ctx)
	if err != nil {
		return err
	}

	list = append([]recall.Interaction{inter}, list...)
	if len(list) > e.workingCap {
		list = list[:e.workingCap]
	}
	data, err := msgpack.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode working tier: %w", err)
	}
	return e.store.SetTTL(ctx, workingKey(e.prefix), data, e.workingTTL.Duration())
}

// workingList reads the current working tier; absent means empty.
func (e *Engine) workingList(ctx context.Context) ([]recall.Interaction, error) {
	data, err := e.store.Get(ctx, workingKey(e.prefix))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []recall.Interaction
	if err := msgpack.Unmarshal(data, &list); err != nil {
		// A malformed working tier is short-lived scratch state; start over
		// rather than wedging every Store call.
		e.log.Warn("resetting undecodable working tier", "err", err)
		return nil, nil
	}
	return list, nil
}

// storeEpisodic embeds the exchange and writes it durably: record first,
// time index second, cache pending buffer last.
func (e *Engine) storeEpisodic(ctx context.Context, inter recall.Interaction) error {
	vec, err := e.embedder.Embed(ctx, inter.UserText+"\n"+inter.AssistantText)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEmbedding, err)
	}

	mem := &recall.Memory{
		Interaction: inter,
		Embedding:   vec,
		Tags:        Tags(inter.UserText, inter.AssistantText),
		StoredAt:    inter.Timestamp,
	}
	if err := e.idx.Put(ctx, mem); err != nil {
		return err
	}
	e.cache.Append(mem)

	e.sink.Emit(ctx, events.New(events.TypeEpisodicStored, map[string]any{
		"id":   inter.ID,
		"tags": mem.Tags,
	}))
	return nil
}

// Recall searches the episodic tier and returns the ranked results. An
// empty result is not an error.
func (e *Engine) Recall(ctx context.Context, q recall.SearchQuery) ([]recall.ScoredMemory, error) {
	hits, err := e.cache.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	top := 0.0
	if len(hits) > 0 {
		top = hits[0].Similarity
	}
	e.sink.Emit(ctx, events.New(events.TypeMemorySearch, map[string]any{
		"query":          q.Text,
		"results":        len(hits),
		"top_similarity": top,
	}))
	return hits, nil
}

// WorkingContext returns up to limit recent exchanges, newest first.
// limit values outside (0, cap] are clamped to the cap.
func (e *Engine) WorkingContext(ctx context.Context, limit int) ([]recall.Interaction, error) {
	list, err := e.workingList(ctx)
	if err != nil {
		return nil, fmt.Errorf("memory: working read: %w", err)
	}
	if limit <= 0 || limit > e.workingCap {
		limit = e.workingCap
	}
	if len(list) > limit {
		list = list[:limit]
	}
	e.sink.Emit(ctx, events.New(events.TypeContextRead, map[string]any{
		"count": len(list),
	}))
	return list, nil
}

// ClearWorking deletes the working tier outright.
func (e *Engine) ClearWorking(ctx context.Context) error {
	if err := e.store.Delete(ctx, workingKey(e.prefix)); err != nil {
		return fmt.Errorf("memory: clear working: %w", err)
	}
	e.sink.Emit(ctx, events.New(events.TypeWorkingCleared, nil))
	return nil
}

// CoreSet stores one fact as JSON under key.
func (e *Engine) CoreSet(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("memory: encode core %q: %w", key, err)
	}
	if err := e.store.Set(ctx, coreKey(e.prefix, key), data); err != nil {
		return fmt.Errorf("memory: set core %q: %w", key, err)
	}
	e.sink.Emit(ctx, events.New(events.TypeCoreUpdated, map[string]any{"key": key}))
	return nil
}

// CoreGet retrieves one fact. Returns [ErrNotFound] for an unknown key.
func (e *Engine) CoreGet(ctx context.Context, key string) (any, error) {
	data, err := e.store.Get(ctx, coreKey(e.prefix, key))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("%w: core %q", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("memory: get core %q: %w", key, err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("memory: decode core %q: %w", key, err)
	}
	e.sink.Emit(ctx, events.New(events.TypeCoreRead, map[string]any{"key": key}))
	return v, nil
}

// CoreAll returns the full fact mapping.
func (e *Engine) CoreAll(ctx context.Context) (map[string]any, error) {
	out := make(map[string]any)
	pfx := corePrefix(e.prefix)
	for entry, err := range e.store.List(ctx, pfx) {
		if err != nil {
			return nil, fmt.Errorf("memory: list core: %w", err)
		}
		field := entry.Key[len(pfx)]
		var v any
		if err := json.Unmarshal(entry.Value, &v); err != nil {
			e.log.Warn("skipping undecodable core fact", "key", field, "err", err)
			continue
		}
		out[field] = v
	}
	e.sink.Emit(ctx, events.New(events.TypeCoreRead, map[string]any{
		"count": len(out),
	}))
	return out, nil
}

// CoreDelete removes one fact. Deleting an absent key is not an error.
func (e *Engine) CoreDelete(ctx context.Context, key string) error {
	if err := e.store.Delete(ctx, coreKey(e.prefix, key)); err != nil {
		return fmt.Errorf("memory: delete core %q: %w", key, err)
	}
	e.sink.Emit(ctx, events.New(events.TypeCoreDeleted, map[string]any{"key": key}))
	return nil
}

// Consolidate runs the read-only sweep: episodic records from the last 24
// hours grouped by tag. With fewer than 5 recent records the sweep is
// skipped. It never mutates any tier.
func (e *Engine) Consolidate(ctx context.Context) (*ConsolidationReport, error) {
	now := nowSeconds()
	after := now - consolidationWindow.Seconds()

	entries, err := e.idx.Range(ctx, after, now)
	if err != nil {
		return nil, fmt.Errorf("memory: consolidate: %w", err)
	}

	report := &ConsolidationReport{
		Window: jsontime.Duration(consolidationWindow),
		Total:  len(entries),
	}
	if len(entries) < consolidationMinEntries {
		report.Skipped = true
		return report, nil
	}

	mems, err := e.idx.Fetch(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("memory: consolidate: %w", err)
	}
	byTag := make(map[string]int)
	for _, mem := range mems {
		for _, tag := range mem.Tags {
			byTag[tag]++
		}
	}
	report.ByTag = byTag

	e.sink.Emit(ctx, events.New(events.TypeConsolidation, map[string]any{
		"total":  report.Total,
		"by_tag": byTag,
	}))
	e.log.Info("consolidation sweep", "total", report.Total, "tags", len(byTag))
	return report, nil
}

// Stats snapshots all tiers and the cache.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	working, err := e.workingList(ctx)
	if err != nil {
		return nil, fmt.Errorf("memory: stats: %w", err)
	}
	episodic, err := e.idx.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("memory: stats: %w", err)
	}
	core := 0
	for _, err := range e.store.List(ctx, corePrefix(e.prefix)) {
		if err != nil {
			return nil, fmt.Errorf("memory: stats: %w", err)
		}
		core++
	}

	st := &Stats{
		Working: WorkingStats{
			Count:   len(working),
			MaxSize: e.workingCap,
			TTL:     e.workingTTL,
		},
		Episodic: EpisodicStats{
			Count:         episodic,
			MinImportance: e.minImportance,
		},
		Core:  CoreStats{Count: core},
		Cache: e.cache.Stats(),
	}
	e.sink.Emit(ctx, events.New(events.TypeStatsRead, map[string]any{
		"working":  st.Working.Count,
		"episodic": st.Episodic.Count,
		"core":     st.Core.Count,
	}))
	return st, nil
}

// FlushPending forces the vector cache to merge its pending buffer.
func (e *Engine) FlushPending() {
	e.cache.FlushPending()
}

// Summary renders a one-line human description of an interaction for
// logs and CLI output.
func Summary(inter recall.Interaction) string {
	u := strings.TrimSpace(inter.UserText)
	if len(u) > 60 {
		u = u[:57] + "..."
	}
	return fmt.Sprintf("[%.2f] %s", inter.Importance, u)
}
