package hllpp

import "sync/atomic"

// denseBlock is the dense register representation: a tag byte (so the
// facade's dispatch stays a single load even once a sparse representation
// exists), the current minimum register value, a cached cardinality, a
// histogram of register values, and the packed 6-bit register store.
// new(denseBlock)'s zero value is already a valid, empty block, so there
// is no separate zeroing step on construction.
type denseBlock struct {
	repr reprTag
	cmin uint8

	card atomic.Uint64

	hist [hllHistLen]uint16
	regs [hllRegistersBytes]byte
}

// newDenseBlock returns an empty dense block: hist[0] = hllRegisters,
// cmin = 0, card = 0 (a valid cached cardinality of zero, not the
// sentinel — this lets a freshly created block skip the initial unpack in
// merge, see (*denseBlock).merge).
func newDenseBlock() *denseBlock {
	b := &denseBlock{repr: reprDense}
	b.hist[0] = hllRegisters
	return b
}

// clear resets the block to the same state newDenseBlock produces.
func (b *denseBlock) clear() {
	b.cmin = 0
	b.card.Store(0)
	for i := range b.hist {
		b.hist[i] = 0
	}
	b.hist[0] = hllRegisters
	for i := range b.regs {
		b.regs[i] = 0
	}
}

// insert updates the register selected by hash's low hllP bits with the
// run-length count derived from its remaining bits, returning true iff that
// register's value strictly increased.
func (b *denseBlock) insert(hash uint64) bool {
	index, count := hllPattern(hash)

	if count < b.cmin {
		return false
	}

	old := getRegister(b.regs[:], index)
	if count <= old {
		return false
	}

	debugAssert(b.hist[old] > 0, "histogram bucket %d underflow", old)

	setRegister(b.regs[:], index, count)

	b.hist[old]--
	b.hist[count]++

	if old == b.cmin {
		countMin := b.cmin
		for b.hist[countMin] == 0 {
			countMin++
		}
		b.cmin = countMin
	}

	b.card.Store(invalidCard)

	return true
}

// count returns the cached cardinality if valid, otherwise recomputes the
// Ertl 2017 improved estimator from the histogram, caches it, and returns
// it.
func (b *denseBlock) count() uint64 {
	if card := b.card.Load(); card != invalidCard {
		return card
	}

	const m = float64(hllRegisters)

	hLast := float64(b.hist[hllQ+1])
	z := m * hllTau((m-hLast)/m)

	for i := hllQ; i >= 1; i-- {
		z = (z + float64(b.hist[i])) * 0.5
	}

	h0 := float64(b.hist[0])
	z += m * hllSigma(h0/m)

	e := hllAlphaInf * m * m / z
	ans := roundHalfAwayFromZero(e)

	b.card.Store(ans)
	return ans
}

func roundHalfAwayFromZero(x float64) uint64 {
	return uint64(x + 0.5)
}

// merge unpacks raw, element-wise maxes this block's own registers (if it
// has ever had a successful insert or merge — see the card != 0 check) and
// every source's registers into it, rebuilds the histogram and cmin from
// the result, invalidates the cache, and repacks raw back into this
// block's packed store.
func (b *denseBlock) merge(sources []*denseBlock) {
	var raw [hllRegisters]byte

	// card != 0 is exactly "this block has had a successful insert or
	// merge since creation/clear": a fresh block's card is the valid
	// cached zero, and insert/merge always set card to invalidCard
	// (!= 0) before returning. Skipping the unpack in that case is safe
	// because an all-zero raw buffer already equals this block's current
	// (all-zero) registers.
	if b.card.Load() != 0 {
		mergeMaxInto(raw[:], b.regs[:])
	}

	for _, src := range sources {
		mergeMaxInto(raw[:], src.regs[:])
	}

	registerHistogram(&b.hist, raw[:])

	countMin := uint8(0)
	for b.hist[countMin] == 0 {
		countMin++
	}
	b.cmin = countMin

	b.card.Store(invalidCard)

	compressInto(b.regs[:], raw[:])
}
