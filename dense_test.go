package hllpp

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertAll(b *denseBlock, keys []string) {
	for _, k := range keys {
		b.insert(murmurHash64A([]byte(k), hashSeed))
	}
}

func randomKeys(n int, seed int64) []string {
	rng := rand.New(rand.NewSource(seed))
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d-%d", seed, rng.Int63())
	}
	return keys
}

func TestDenseBlockStartsEmpty(t *testing.T) {
	b := newDenseBlock()
	assert.Equal(t, uint64(0), b.count())
	assert.Equal(t, uint16(hllRegisters), b.hist[0])
}

func TestDenseHistogramSumsToRegisterCount(t *testing.T) {
	b := newDenseBlock()
	insertAll(b, randomKeys(5000, 1))

	var sum uint32
	for _, n := range b.hist {
		sum += uint32(n)
	}
	assert.Equal(t, uint32(hllRegisters), sum)
}

func TestDenseCminIsSmallestPopulatedBucket(t *testing.T) {
	b := newDenseBlock()
	insertAll(b, randomKeys(2000, 2))

	for i := uint8(0); i < b.cmin; i++ {
		require.Zero(t, b.hist[i], "bucket %d below cmin %d must be empty", i, b.cmin)
	}
	assert.NotZero(t, b.hist[b.cmin])
}

func TestDenseInsertIsIdempotent(t *testing.T) {
	b := newDenseBlock()
	key := []byte("repeat-me")
	hash := murmurHash64A(key, hashSeed)

	first := b.insert(hash)
	assert.True(t, first)

	before := b.regs
	second := b.insert(hash)
	assert.False(t, second)
	assert.Equal(t, before, b.regs)
}

func TestDenseInsertPermutationInvariant(t *testing.T) {
	keys := randomKeys(3000, 3)

	a := newDenseBlock()
	insertAll(a, keys)

	shuffled := make([]string, len(keys))
	copy(shuffled, keys)
	rng := rand.New(rand.NewSource(99))
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	b := newDenseBlock()
	insertAll(b, shuffled)

	assert.Equal(t, a.regs, b.regs)
	assert.Equal(t, a.count(), b.count())
}

func TestDenseCountWithinErrorBound(t *testing.T) {
	// Redis's dense HLL targets ~0.8% relative standard error; allow a
	// generous multiple of that for a single trial to avoid test flakes.
	const relErrBound = 0.03

	for _, n := range []int{10, 100, 1000, 10000} {
		b := newDenseBlock()
		insertAll(b, randomKeys(n, int64(n)))

		got := b.count()
		rel := relativeError(got, uint64(n))
		assert.Lessf(t, rel, relErrBound, "n=%d got=%d relErr=%f", n, got, rel)
	}
}

func relativeError(got, want uint64) float64 {
	diff := float64(got) - float64(want)
	if diff < 0 {
		diff = -diff
	}
	return diff / float64(want)
}

func TestDenseClearResetsToEmpty(t *testing.T) {
	b := newDenseBlock()
	insertAll(b, randomKeys(1000, 4))
	require.NotZero(t, b.count())

	b.clear()

	fresh := newDenseBlock()
	assert.Equal(t, fresh.regs, b.regs)
	assert.Equal(t, fresh.hist, b.hist)
	assert.Equal(t, fresh.cmin, b.cmin)
	assert.Equal(t, fresh.count(), b.count())
}

func TestDenseMergeIntoSelfIsNoop(t *testing.T) {
	b := newDenseBlock()
	insertAll(b, randomKeys(500, 5))
	before := b.regs

	b.merge([]*denseBlock{b})

	assert.Equal(t, before, b.regs)
}

func TestDenseMergeIsCommutative(t *testing.T) {
	a := newDenseBlock()
	insertAll(a, randomKeys(800, 6))
	b := newDenseBlock()
	insertAll(b, randomKeys(800, 7))

	ab := newDenseBlock()
	insertAll(ab, randomKeys(800, 6))
	ab.merge([]*denseBlock{b})

	ba := newDenseBlock()
	insertAll(ba, randomKeys(800, 7))
	ba.merge([]*denseBlock{a})

	assert.Equal(t, ab.regs, ba.regs)
}

func TestDenseMergeIsAssociative(t *testing.T) {
	build := func(seed int64) *denseBlock {
		blk := newDenseBlock()
		insertAll(blk, randomKeys(600, seed))
		return blk
	}

	left := func() *denseBlock {
		ab := build(8)
		ab.merge([]*denseBlock{build(9)})
		result := newDenseBlock()
		result.merge([]*denseBlock{ab, build(10)})
		return result
	}()

	right := func() *denseBlock {
		bc := build(9)
		bc.merge([]*denseBlock{build(10)})
		result := build(8)
		result.merge([]*denseBlock{bc})
		return result
	}()

	assert.Equal(t, left.regs, right.regs)
}

func TestDenseMergeIsAtLeastAsLargeAsEitherSource(t *testing.T) {
	a := newDenseBlock()
	insertAll(a, randomKeys(4000, 11))
	b := newDenseBlock()
	insertAll(b, randomKeys(4000, 12))

	countA := a.count()
	countB := b.count()

	merged := newDenseBlock()
	merged.merge([]*denseBlock{a, b})

	assert.GreaterOrEqual(t, merged.count(), countA)
	assert.GreaterOrEqual(t, merged.count(), countB)
}

func TestDenseMergeInvalidatesCache(t *testing.T) {
	a := newDenseBlock()
	insertAll(a, randomKeys(100, 13))
	_ = a.count()
	require.NotEqual(t, invalidCard, a.card.Load())

	b := newDenseBlock()
	insertAll(b, randomKeys(100, 14))

	a.merge([]*denseBlock{b})
	assert.Equal(t, invalidCard, a.card.Load())
}
