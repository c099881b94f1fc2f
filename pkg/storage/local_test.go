package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
)

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	w, err := store.Write(ctx, "snapshots/episodic.jsonl")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := io.WriteString(w, "line one\n"); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	ok, err := store.Exists(ctx, "snapshots/episodic.jsonl")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v; want true", ok, err)
	}

	r, err := store.Read(ctx, "snapshots/episodic.jsonl")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	data, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "line one\n" {
		t.Errorf("Read = %q", data)
	}
}

func TestLocalWriteTruncates(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, content := range []string{"first version, long", "second"} {
		w, err := store.Write(ctx, "core.json")
		if err != nil {
			t.Fatal(err)
		}
		io.WriteString(w, content)
		w.Close()
	}
	r, err := store.Read(ctx, "core.json")
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(r)
	r.Close()
	if string(data) != "second" {
		t.Errorf("Read = %q; want truncated rewrite", data)
	}
}

func TestLocalMissingAndDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.Read(ctx, "nope"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Read missing = %v; want os.ErrNotExist", err)
	}
	ok, err := store.Exists(ctx, "nope")
	if err != nil || ok {
		t.Errorf("Exists missing = %v, %v; want false", ok, err)
	}
	// Idempotent delete.
	if err := store.Delete(ctx, "nope"); err != nil {
		t.Errorf("Delete missing = %v; want nil", err)
	}

	w, _ := store.Write(ctx, "gone.jsonl")
	w.Close()
	if err := store.Delete(ctx, "gone.jsonl"); err != nil {
		t.Fatal(err)
	}
	ok, _ = store.Exists(ctx, "gone.jsonl")
	if ok {
		t.Error("file still exists after delete")
	}
}
