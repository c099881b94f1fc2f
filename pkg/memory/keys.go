package memory

import "github.com/thotsl4yer69/sentient-core/pkg/kv"

// Key layout (relative to the engine prefix):
//
//	{prefix}:wrk           → msgpack []recall.Interaction, newest first,
//	                         whole value carries the working-tier TTL
//	{prefix}:core:{field}  → JSON fact value
//	{prefix}:epi, {prefix}:idx — owned by recall.Index, see that package.

// workingKey is the single key holding the working tier.
func workingKey(prefix kv.Key) kv.Key {
	k := make(kv.Key, len(prefix)+1)
	copy(k, prefix)
	k[len(prefix)] = "wrk"
	return k
}

// coreKey is the key for one core fact.
func coreKey(prefix kv.Key, field string) kv.Key {
	k := make(kv.Key, len(prefix)+2)
	copy(k, prefix)
	k[len(prefix)] = "core"
	k[len(prefix)+1] = field
	return k
}

// corePrefix scans the whole core tier.
func corePrefix(prefix kv.Key) kv.Key {
	k := make(kv.Key, len(prefix)+1)
	copy(k, prefix)
	k[len(prefix)] = "core"
	return k
}
