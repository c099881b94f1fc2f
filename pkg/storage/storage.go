// Package storage abstracts file-oriented storage for memory snapshots.
//
// The engine exports its durable tiers as snapshot files (JSONL episodic
// records plus a core-fact document); a FileStore decides where those
// files live. Local disk and S3-compatible object stores are provided.
package storage

import (
	"context"
	"io"
)

// FileStore reads and writes named files. Paths are forward-slash
// separated and relative to the store root. Implementations must be safe
// for concurrent use.
type FileStore interface {
	// Read opens a file for reading. A missing file yields an error
	// wrapping os.ErrNotExist.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write opens a file for writing, truncating any existing content.
	// Data is not guaranteed durable until the returned writer is closed.
	Write(ctx context.Context, path string) (io.WriteCloser, error)

	// Delete removes a file. Deleting an absent file is not an error.
	Delete(ctx context.Context, path string) error

	// Exists reports whether a file exists.
	Exists(ctx context.Context, path string) (bool, error)
}
