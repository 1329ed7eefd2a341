// Package shard provides partition key generation for sharded DynamoDB snapshot items.
package shard

import (
	"fmt"
	"hash/fnv"
)

// MaxShards is the largest supported shard count. Shard suffixes are two hex digits.
const MaxShards = 256

// Clamp bounds numShards to 1..MaxShards.
func Clamp(numShards int) int {
	if numShards < 1 {
		return 1
	}
	if numShards > MaxShards {
		return MaxShards
	}
	return numShards
}

// ItemPK computes the sharded partition key for an item within scope.
// With numShards=1, all items go to shard "00".
// With numShards>1, items are distributed across shards based on the itemKey hash.
func ItemPK(scope, itemKey string, numShards int) string {
	numShards = Clamp(numShards)
	if numShards == 1 {
		return fmt.Sprintf("%s#00", scope)
	}
	h := fnv.New32a()
	h.Write([]byte(itemKey))
	shard := h.Sum32() % uint32(numShards)
	return fmt.Sprintf("%s#%02x", scope, shard)
}

// PKs returns every partition key ItemPK can produce for scope, in shard order.
// Readers fan out over these to collect a whole scope.
func PKs(scope string, numShards int) []string {
	numShards = Clamp(numShards)
	pks := make([]string, numShards)
	for i := range pks {
		pks[i] = fmt.Sprintf("%s#%02x", scope, i)
	}
	return pks
}
