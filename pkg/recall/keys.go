package recall

import (
	"fmt"
	"strconv"

	"github.com/thotsl4yer69/sentient-core/pkg/kv"
)

// Key layout (relative to the Index prefix):
//
//	{prefix}:epi:{id}          → msgpack-encoded Memory record
//	{prefix}:idx:{ns20}:{id}   → stored-at seconds (decimal string)
//
// The time index key embeds the store time as a zero-padded nanosecond
// count, so lexicographic key order equals chronological order and a range
// scan over {prefix}:idx answers "what was stored between t1 and t2"
// without touching the records themselves. The record ID rides in the key
// suffix to keep keys unique even for identical timestamps.

// nsWidth is the zero-padded width of the nanosecond segment. 20 digits
// hold any int64.
const nsWidth = 20

// recordKey builds the KV key for an episodic record.
func recordKey(prefix kv.Key, id string) kv.Key {
	k := make(kv.Key, len(prefix)+2)
	copy(k, prefix)
	k[len(prefix)] = "epi"
	k[len(prefix)+1] = id
	return k
}

// indexKey builds the KV key for a time-index entry.
func indexKey(prefix kv.Key, ns int64, id string) kv.Key {
	k := make(kv.Key, len(prefix)+3)
	copy(k, prefix)
	k[len(prefix)] = "idx"
	k[len(prefix)+1] = fmt.Sprintf("%0*d", nsWidth, ns)
	k[len(prefix)+2] = id
	return k
}

// indexPrefix returns the KV prefix for scanning the whole time index.
func indexPrefix(prefix kv.Key) kv.Key {
	k := make(kv.Key, len(prefix)+1)
	copy(k, prefix)
	k[len(prefix)] = "idx"
	return k
}

// parseIndexKey extracts the nanosecond timestamp and record ID from a
// time-index key. prefixLen is the number of segments in the Index prefix.
func parseIndexKey(key kv.Key, prefixLen int) (ns int64, id string, err error) {
	if len(key) != prefixLen+3 {
		return 0, "", fmt.Errorf("recall: malformed index key: expected %d segments, got %d", prefixLen+3, len(key))
	}
	if key[prefixLen] != "idx" {
		return 0, "", fmt.Errorf("recall: malformed index key: expected 'idx', got %q", key[prefixLen])
	}
	ns, err = strconv.ParseInt(key[prefixLen+1], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("recall: malformed index key timestamp: %w", err)
	}
	return ns, key[prefixLen+2], nil
}
