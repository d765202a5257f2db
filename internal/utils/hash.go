package utils

import "hash/fnv"

// HashStringToUint64 returns a stable FNV-1a hash of s. The mock predictor
// derives its repeatable sentiment and entity picks from it, so the same
// review text always yields the same prediction.
func HashStringToUint64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
