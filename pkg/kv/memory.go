package kv

import (
	"bytes"
	"context"
	"iter"
	"sort"
	"sync"
	"time"
)

// Memory is an in-memory Store implementation backed by a sorted map.
// It is safe for concurrent use and intended primarily for testing.
//
// TTLs are honored lazily: expired entries are filtered out on read rather
// than removed by a background sweeper.
type Memory struct {
	mu   sync.RWMutex
	data map[string]memEntry
	opts *Options

	// now is the clock, overridable in tests to exercise expiry.
	now func() time.Time
}

type memEntry struct {
	val []byte
	// expiresAt is the zero time for entries without a TTL.
	expiresAt time.Time
}

// NewMemory creates a new in-memory Store.
// Pass nil for default options.
func NewMemory(opts *Options) *Memory {
	return &Memory{
		data: make(map[string]memEntry),
		opts: opts,
		now:  time.Now,
	}
}

// SetClock overrides the store's clock. Tests use it to fast-forward TTLs.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

func (m *Memory) expired(e memEntry) bool {
	return !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)
}

func (m *Memory) Get(_ context.Context, key Key) ([]byte, error) {
	k := string(m.opts.encode(key))
	m.mu.RLock()
	e, ok := m.data[k]
	expired := ok && m.expired(e)
	m.mu.RUnlock()
	if !ok || expired {
		return nil, ErrNotFound
	}
	// Return a copy to prevent mutation.
	cp := make([]byte, len(e.val))
	copy(cp, e.val)
	return cp, nil
}

func (m *Memory) Set(_ context.Context, key Key, value []byte) error {
	k := string(m.opts.encode(key))
	cp := make([]byte, len(value))
	copy(cp, value)
	m.mu.Lock()
	m.data[k] = memEntry{val: cp}
	m.mu.Unlock()
	return nil
}

func (m *Memory) SetTTL(_ context.Context, key Key, value []byte, ttl time.Duration) error {
	k := string(m.opts.encode(key))
	cp := make([]byte, len(value))
	copy(cp, value)
	m.mu.Lock()
	e := memEntry{val: cp}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.data[k] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key Key) error {
	k := string(m.opts.encode(key))
	m.mu.Lock()
	delete(m.data, k)
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(_ context.Context, prefix Key) iter.Seq2[Entry, error] {
	p := m.opts.encode(prefix)
	// Append separator so "a:b" prefix doesn't match "a:bc".
	// But if prefix is empty, scan everything.
	var prefixBytes []byte
	if len(p) > 0 {
		prefixBytes = append(p, m.opts.sep())
	}

	// Snapshot matching keys under read lock.
	m.mu.RLock()
	type kvPair struct {
		key string
		val []byte
	}
	var matches []kvPair
	for k, e := range m.data {
		if m.expired(e) {
			continue
		}
		if len(prefixBytes) == 0 || bytes.HasPrefix([]byte(k), prefixBytes) {
			cp := make([]byte, len(e.val))
			copy(cp, e.val)
			matches = append(matches, kvPair{k, cp})
		}
	}
	m.mu.RUnlock()

	// Sort for deterministic lexicographic order.
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].key < matches[j].key
	})

	return func(yield func(Entry, error) bool) {
		for _, pair := range matches {
			entry := Entry{
				Key:   m.opts.decode([]byte(pair.key)),
				Value: pair.val,
			}
			if !yield(entry, nil) {
				return
			}
		}
	}
}

func (m *Memory) BatchGet(_ context.Context, keys []Key) ([][]byte, error) {
	vals := make([][]byte, len(keys))
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i, key := range keys {
		k := string(m.opts.encode(key))
		e, ok := m.data[k]
		if !ok || m.expired(e) {
			continue
		}
		cp := make([]byte, len(e.val))
		copy(cp, e.val)
		vals[i] = cp
	}
	return vals, nil
}

func (m *Memory) BatchSet(_ context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		k := string(m.opts.encode(e.Key))
		cp := make([]byte, len(e.Value))
		copy(cp, e.Value)
		m.data[k] = memEntry{val: cp}
	}
	return nil
}

func (m *Memory) BatchDelete(_ context.Context, keys []Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		k := string(m.opts.encode(key))
		delete(m.data, k)
	}
	return nil
}

func (m *Memory) Close() error {
	return nil
}
