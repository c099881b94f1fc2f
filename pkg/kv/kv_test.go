package kv_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thotsl4yer69/sentient-core/pkg/kv"
)

// storeFactory builds a fresh store for each conformance subtest.
type storeFactory func(t *testing.T) kv.Store

func memoryFactory(t *testing.T) kv.Store {
	t.Helper()
	return kv.NewMemory(nil)
}

func badgerFactory(t *testing.T) kv.Store {
	t.Helper()
	s, err := kv.NewBadger(kv.BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreConformance(t *testing.T) {
	factories := map[string]storeFactory{
		"memory": memoryFactory,
		"badger": badgerFactory,
	}
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			t.Run("get_set_delete", func(t *testing.T) { testGetSetDelete(t, factory(t)) })
			t.Run("list_order", func(t *testing.T) { testListOrder(t, factory(t)) })
			t.Run("list_prefix_boundary", func(t *testing.T) { testListPrefixBoundary(t, factory(t)) })
			t.Run("batch_get", func(t *testing.T) { testBatchGet(t, factory(t)) })
			t.Run("batch_set_delete", func(t *testing.T) { testBatchSetDelete(t, factory(t)) })
		})
	}
}

func testGetSetDelete(t *testing.T, s kv.Store) {
	ctx := context.Background()

	if _, err := s.Get(ctx, kv.Key{"missing"}); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("Get missing = %v; want ErrNotFound", err)
	}

	key := kv.Key{"mem", "core", "name"}
	if err := s.Set(ctx, key, []byte("Jack")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "Jack" {
		t.Errorf("Get = %q; want %q", got, "Jack")
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, key); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("Get after delete = %v; want ErrNotFound", err)
	}
	// Deleting again is idempotent.
	if err := s.Delete(ctx, key); err != nil {
		t.Errorf("Delete missing = %v; want nil", err)
	}
}

func testListOrder(t *testing.T, s kv.Store) {
	ctx := context.Background()
	// Inserted out of order; List must yield lexicographic order.
	for _, seg := range []string{"03", "01", "02"} {
		if err := s.Set(ctx, kv.Key{"mem", "idx", seg}, []byte(seg)); err != nil {
			t.Fatalf("Set %s: %v", seg, err)
		}
	}

	var got []string
	for entry, err := range s.List(ctx, kv.Key{"mem", "idx"}) {
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		got = append(got, string(entry.Value))
	}
	want := []string{"01", "02", "03"}
	if len(got) != len(want) {
		t.Fatalf("List yielded %d entries; want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List[%d] = %q; want %q", i, got[i], want[i])
		}
	}
}

func testListPrefixBoundary(t *testing.T, s kv.Store) {
	ctx := context.Background()
	if err := s.Set(ctx, kv.Key{"mem", "epi", "a"}, []byte("x")); err != nil {
		t.Fatal(err)
	}
	// Sibling whose first segment shares a prefix with "epi".
	if err := s.Set(ctx, kv.Key{"mem", "episodes", "b"}, []byte("y")); err != nil {
		t.Fatal(err)
	}

	count := 0
	for _, err := range s.List(ctx, kv.Key{"mem", "epi"}) {
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		count++
	}
	if count != 1 {
		t.Errorf("List(mem:epi) yielded %d entries; want 1 (prefix must not match mem:episodes)", count)
	}
}

func testBatchGet(t *testing.T, s kv.Store) {
	ctx := context.Background()
	if err := s.Set(ctx, kv.Key{"a"}, []byte("1")); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, kv.Key{"c"}, []byte("3")); err != nil {
		t.Fatal(err)
	}

	vals, err := s.BatchGet(ctx, []kv.Key{{"a"}, {"b"}, {"c"}})
	if err != nil {
		t.Fatalf("BatchGet: %v", err)
	}
	if len(vals) != 3 {
		t.Fatalf("BatchGet returned %d slots; want 3", len(vals))
	}
	if string(vals[0]) != "1" || vals[1] != nil || string(vals[2]) != "3" {
		t.Errorf("BatchGet = [%q %v %q]; want [1 <nil> 3]", vals[0], vals[1], vals[2])
	}
}

func testBatchSetDelete(t *testing.T, s kv.Store) {
	ctx := context.Background()
	entries := []kv.Entry{
		{Key: kv.Key{"b", "1"}, Value: []byte("v1")},
		{Key: kv.Key{"b", "2"}, Value: []byte("v2")},
	}
	if err := s.BatchSet(ctx, entries); err != nil {
		t.Fatalf("BatchSet: %v", err)
	}
	for _, e := range entries {
		if _, err := s.Get(ctx, e.Key); err != nil {
			t.Errorf("Get %v after BatchSet: %v", e.Key, err)
		}
	}

	if err := s.BatchDelete(ctx, []kv.Key{{"b", "1"}, {"b", "2"}}); err != nil {
		t.Fatalf("BatchDelete: %v", err)
	}
	for _, e := range entries {
		if _, err := s.Get(ctx, e.Key); !errors.Is(err, kv.ErrNotFound) {
			t.Errorf("Get %v after BatchDelete = %v; want ErrNotFound", e.Key, err)
		}
	}
}

func TestMemoryTTL(t *testing.T) {
	ctx := context.Background()
	s := kv.NewMemory(nil)

	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	key := kv.Key{"mem", "wrk"}
	if err := s.SetTTL(ctx, key, []byte("recent"), time.Hour); err != nil {
		t.Fatalf("SetTTL: %v", err)
	}

	if _, err := s.Get(ctx, key); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}

	// Advance past the TTL: the key behaves like it never existed.
	now = now.Add(time.Hour + time.Second)
	if _, err := s.Get(ctx, key); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("Get after expiry = %v; want ErrNotFound", err)
	}
	for range s.List(ctx, kv.Key{"mem"}) {
		t.Error("List yielded expired entry")
	}

	// SetTTL with zero ttl behaves like Set (no expiry).
	if err := s.SetTTL(ctx, key, []byte("forever"), 0); err != nil {
		t.Fatalf("SetTTL zero: %v", err)
	}
	now = now.Add(24 * time.Hour)
	if _, err := s.Get(ctx, key); err != nil {
		t.Errorf("Get with zero ttl after 24h: %v", err)
	}
}

func TestBadgerTTLZero(t *testing.T) {
	ctx := context.Background()
	s := badgerFactory(t)

	key := kv.Key{"mem", "wrk"}
	if err := s.SetTTL(ctx, key, []byte("v"), 0); err != nil {
		t.Fatalf("SetTTL zero: %v", err)
	}
	if _, err := s.Get(ctx, key); err != nil {
		t.Errorf("Get after SetTTL zero: %v", err)
	}
}
