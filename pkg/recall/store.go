package recall

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/thotsl4yer69/sentient-core/pkg/kv"
)

// fetchBatch bounds how many records a single BatchGet round trip may
// request, keeping peak memory flat during cache bootstrap.
const fetchBatch = 500

// Index is the durable episodic tier: msgpack records keyed by interaction
// ID plus a time-ordered index for range queries and enumeration order.
//
// Index never deletes records on its own; the engine's lifecycle rules
// decide what enters the tier.
type Index struct {
	store  kv.Store
	prefix kv.Key
	log    *slog.Logger
}

// NewIndex creates an episodic index scoped under the given KV prefix.
// Pass nil for the default logger.
func NewIndex(store kv.Store, prefix kv.Key, log *slog.Logger) *Index {
	if log == nil {
		log = slog.Default()
	}
	return &Index{store: store, prefix: prefix, log: log}
}

// Put persists a record durably: the msgpack record first, the time-index
// entry second. A crash in between leaves an orphaned record that a later
// rewrite of the same exchange (same ID) repairs.
func (idx *Index) Put(ctx context.Context, mem *Memory) error {
	data, err := msgpack.Marshal(mem)
	if err != nil {
		return fmt.Errorf("recall: encode record %s: %w", mem.Interaction.ID, err)
	}
	if err := idx.store.Set(ctx, recordKey(idx.prefix, mem.Interaction.ID), data); err != nil {
		return fmt.Errorf("recall: put record %s: %w", mem.Interaction.ID, err)
	}

	ns := secondsToNanos(mem.StoredAt)
	val := fmt.Sprintf("%.6f", mem.Interaction.Timestamp)
	if err := idx.store.Set(ctx, indexKey(idx.prefix, ns, mem.Interaction.ID), []byte(val)); err != nil {
		return fmt.Errorf("recall: index record %s: %w", mem.Interaction.ID, err)
	}
	return nil
}

// Get retrieves one record by interaction ID.
func (idx *Index) Get(ctx context.Context, id string) (*Memory, error) {
	data, err := idx.store.Get(ctx, recordKey(idx.prefix, id))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("recall: get record %s: %w", id, err)
	}
	var mem Memory
	if err := msgpack.Unmarshal(data, &mem); err != nil {
		return nil, fmt.Errorf("recall: decode record %s: %w", id, err)
	}
	return &mem, nil
}

// Count returns the number of entries in the time index.
func (idx *Index) Count(ctx context.Context) (int, error) {
	n := 0
	for _, err := range idx.store.List(ctx, indexPrefix(idx.prefix)) {
		if err != nil {
			return 0, fmt.Errorf("recall: count: %w", err)
		}
		n++
	}
	return n, nil
}

// IndexEntry is one time-index row: a record ID and its store time.
type IndexEntry struct {
	ID string
	NS int64
}

// StoredAt returns the entry's store time in Unix seconds.
func (e IndexEntry) StoredAt() float64 {
	return float64(e.NS) / 1e9
}

// Entries enumerates the full time index in chronological (insertion)
// order. Malformed index keys are skipped with a warning.
func (idx *Index) Entries(ctx context.Context) ([]IndexEntry, error) {
	return idx.Range(ctx, 0, 0)
}

// Range enumerates time-index entries with StoredAt in [after, before],
// both in Unix seconds and inclusive; zero means unbounded on that side.
// Entries come back in chronological order.
func (idx *Index) Range(ctx context.Context, after, before float64) ([]IndexEntry, error) {
	afterNS := int64(0)
	beforeNS := int64(math.MaxInt64)
	if after > 0 {
		afterNS = secondsToNanos(after)
	}
	if before > 0 {
		beforeNS = secondsToNanos(before)
	}

	var entries []IndexEntry
	for entry, err := range idx.store.List(ctx, indexPrefix(idx.prefix)) {
		if err != nil {
			return nil, fmt.Errorf("recall: range scan: %w", err)
		}
		ns, id, perr := parseIndexKey(entry.Key, len(idx.prefix))
		if perr != nil {
			idx.log.Warn("skipping malformed index key", "key", entry.Key.String(), "err", perr)
			continue
		}
		if ns < afterNS || ns > beforeNS {
			continue
		}
		entries = append(entries, IndexEntry{ID: id, NS: ns})
	}
	return entries, nil
}

// Fetch batch-loads the records for the given entries, preserving entry
// order. Batches are capped at fetchBatch per round trip. Records that are
// missing or fail to decode are skipped with a warning, never fatal.
func (idx *Index) Fetch(ctx context.Context, entries []IndexEntry) ([]*Memory, error) {
	out := make([]*Memory, 0, len(entries))
	for start := 0; start < len(entries); start += fetchBatch {
		end := min(start+fetchBatch, len(entries))
		batch := entries[start:end]

		keys := make([]kv.Key, len(batch))
		for i, e := range batch {
			keys[i] = recordKey(idx.prefix, e.ID)
		}
		vals, err := idx.store.BatchGet(ctx, keys)
		if err != nil {
			return nil, fmt.Errorf("recall: fetch batch [%d:%d]: %w", start, end, err)
		}

		for i, data := range vals {
			if data == nil {
				idx.log.Warn("episodic record missing for index entry", "id", batch[i].ID)
				continue
			}
			var mem Memory
			if err := msgpack.Unmarshal(data, &mem); err != nil {
				idx.log.Warn("skipping undecodable episodic record", "id", batch[i].ID, "err", err)
				continue
			}
			out = append(out, &mem)
		}
	}
	return out, nil
}

// secondsToNanos converts Unix seconds (float) to nanoseconds.
func secondsToNanos(s float64) int64 {
	return int64(math.Round(s * 1e9))
}
