package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/thotsl4yer69/sentient-core/pkg/recall"
	"github.com/thotsl4yer69/sentient-core/pkg/storage"
)

// Snapshot file names under the export directory.
const (
	snapshotEpisodic = "episodic.jsonl"
	snapshotCore     = "core.json"
)

// SnapshotInfo reports what an export or import moved.
type SnapshotInfo struct {
	Episodic int `json:"episodic"`
	Core     int `json:"core"`
}

// Export writes the durable tiers to a snapshot: one JSON line per
// episodic record (embedding included, so an import needs no re-embedding)
// plus a single core-fact document. The working tier is scratch state and
// is not exported.
func (e *Engine) Export(ctx context.Context, fs storage.FileStore, dir string) (*SnapshotInfo, error) {
	info := &SnapshotInfo{}

	entries, err := e.idx.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("memory: export: %w", err)
	}
	mems, err := e.idx.Fetch(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("memory: export: %w", err)
	}

	w, err := fs.Write(ctx, dir+"/"+snapshotEpisodic)
	if err != nil {
		return nil, fmt.Errorf("memory: export: %w", err)
	}
	enc := json.NewEncoder(w)
	for _, mem := range mems {
		if err := enc.Encode(mem); err != nil {
			w.Close()
			return nil, fmt.Errorf("memory: export record %s: %w", mem.Interaction.ID, err)
		}
		info.Episodic++
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("memory: export: %w", err)
	}

	facts, err := e.CoreAll(ctx)
	if err != nil {
		return nil, err
	}
	w, err = fs.Write(ctx, dir+"/"+snapshotCore)
	if err != nil {
		return nil, fmt.Errorf("memory: export: %w", err)
	}
	if err := json.NewEncoder(w).Encode(facts); err != nil {
		w.Close()
		return nil, fmt.Errorf("memory: export core: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("memory: export: %w", err)
	}
	info.Core = len(facts)

	e.log.Info("snapshot exported", "episodic", info.Episodic, "core", info.Core)
	return info, nil
}

// Import loads a snapshot into the engine's tiers. Episodic records keep
// their original IDs and timestamps, so importing the same snapshot twice
// is idempotent. A missing core document is tolerated; a missing episodic
// file is an error.
func (e *Engine) Import(ctx context.Context, fs storage.FileStore, dir string) (*SnapshotInfo, error) {
	info := &SnapshotInfo{}

	r, err := fs.Read(ctx, dir+"/"+snapshotEpisodic)
	if err != nil {
		return nil, fmt.Errorf("memory: import: %w", err)
	}
	dec := json.NewDecoder(r)
	for {
		var mem recall.Memory
		if err := dec.Decode(&mem); err == io.EOF {
			break
		} else if err != nil {
			r.Close()
			return nil, fmt.Errorf("memory: import record %d: %w", info.Episodic, err)
		}
		if err := e.idx.Put(ctx, &mem); err != nil {
			r.Close()
			return nil, err
		}
		e.cache.Append(&mem)
		info.Episodic++
	}
	r.Close()

	r, err = fs.Read(ctx, dir+"/"+snapshotCore)
	if errors.Is(err, os.ErrNotExist) {
		e.log.Info("snapshot imported", "episodic", info.Episodic, "core", 0)
		return info, nil
	}
	if err != nil {
		return nil, fmt.Errorf("memory: import: %w", err)
	}
	defer r.Close()
	var facts map[string]any
	if err := json.NewDecoder(r).Decode(&facts); err != nil {
		return nil, fmt.Errorf("memory: import core: %w", err)
	}
	for key, value := range facts {
		if err := e.CoreSet(ctx, key, value); err != nil {
			return nil, err
		}
		info.Core++
	}

	e.log.Info("snapshot imported", "episodic", info.Episodic, "core", info.Core)
	return info, nil
}
