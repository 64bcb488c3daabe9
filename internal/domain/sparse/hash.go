package sparse

import "hash/fnv"

// TermIndex maps a term to a stable index in [0, IndexSpace) via FNV-1a.
// Collisions are possible and accepted; the large space keeps them rare.
func TermIndex(term string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(term))
	return h.Sum32() & (IndexSpace - 1)
}
