package cli

import (
	"os"
	"path/filepath"
)

// Paths resolves the ~/.sentient directory layout.
type Paths struct {
	home string
}

// NewPaths creates a Paths rooted at the user's home directory.
func NewPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{home: home}, nil
}

// BaseDir returns ~/.sentient.
func (p *Paths) BaseDir() string {
	return filepath.Join(p.home, DefaultBaseDir)
}

// DataDir returns the engine database directory (~/.sentient/data).
func (p *Paths) DataDir() string {
	return filepath.Join(p.BaseDir(), "data")
}

// SnapshotDir returns the snapshot export directory
// (~/.sentient/snapshots).
func (p *Paths) SnapshotDir() string {
	return filepath.Join(p.BaseDir(), "snapshots")
}

// EnsureDataDir creates the data directory if needed.
func (p *Paths) EnsureDataDir() error {
	return os.MkdirAll(p.DataDir(), 0o755)
}
