package hllpp

// HyperLogLog is a Redis-compatible dense cardinality estimator. The zero
// value is not usable; construct one with New. Concurrent Count calls on
// the same receiver are safe, but Insert, Merge and Clear must not run
// concurrently with any other method call on the same receiver.
type HyperLogLog struct {
	dense *denseBlock
}

// New returns an empty HyperLogLog backed by the dense representation.
func New() *HyperLogLog {
	return &HyperLogLog{dense: newDenseBlock()}
}

// Clear resets h to the empty estimator, reusing its existing storage.
func (h *HyperLogLog) Clear() {
	h.dense.clear()
}

// Insert adds key to the estimator. It returns true if key's hash changed
// at least one register's value, i.e. if the insert could possibly have
// changed the result of a subsequent Count.
func (h *HyperLogLog) Insert(key []byte) bool {
	hash := murmurHash64A(key, hashSeed)
	return h.dense.insert(hash)
}

// Count returns the estimated number of distinct keys inserted into h (and
// anything merged into it). The estimate is cached until the next Insert,
// Merge, or Clear.
func (h *HyperLogLog) Count() uint64 {
	return h.dense.count()
}

// Merge folds every source into h, in place. h's own prior contents
// participate in the merge, so Merge is safe to call repeatedly to
// accumulate more sources over time. It is equivalent to, but cheaper
// than, inserting every key ever inserted into each source into h.
func (h *HyperLogLog) Merge(sources ...*HyperLogLog) {
	if len(sources) == 0 {
		return
	}

	blocks := make([]*denseBlock, len(sources))
	for i, s := range sources {
		blocks[i] = s.dense
	}

	h.dense.merge(blocks)
}

// Clone returns an independent copy of h: inserting into or clearing the
// clone never affects h, and vice versa.
func (h *HyperLogLog) Clone() *HyperLogLog {
	clone := newDenseBlock()
	clone.repr = h.dense.repr
	clone.cmin = h.dense.cmin
	clone.card.Store(h.dense.card.Load())
	clone.hist = h.dense.hist
	clone.regs = h.dense.regs
	return &HyperLogLog{dense: clone}
}
