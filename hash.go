package hllpp

import "encoding/binary"

// murmurHash64A implements Austin Appleby's MurmurHash64A over key with the
// given seed: 8-byte little-endian chunks folded with the classic
// MurmurHash64A mix, then a 1..7 byte tail that contributes byte i
// (0-indexed from the start of the tail) as (b_i << (8*i)) XORed into the
// accumulator, followed by one extra multiply by m if the tail is
// non-empty. The fixed seed used by the facade (hashSeed) makes this
// bit-compatible with Redis's own MurmurHash64A-based HLL.
func murmurHash64A(key []byte, seed uint64) uint64 {
	const (
		m = 0xc6a4a7935bd1e995
		r = 47
	)

	h := seed ^ (uint64(len(key)) * m)

	for len(key) >= 8 {
		k := binary.LittleEndian.Uint64(key)
		key = key[8:]

		k *= m
		k ^= k >> r
		k *= m

		h ^= k
		h *= m
	}

	if len(key) > 0 {
		for i := len(key) - 1; i >= 0; i-- {
			h ^= uint64(key[i]) << (8 * uint(i))
		}
		h *= m
	}

	h ^= h >> r
	h *= m
	h ^= h >> r

	return h
}
