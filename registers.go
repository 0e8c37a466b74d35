package hllpp

// hllRegistersBytes is the size of the packed register store: ceil(REGISTERS*BITS/8)
// plus a 16-byte trailing pad. The pad allows every unaligned 16-bit load at
// the last register to stay in-bounds, and gives the AVX-512 repack kernel
// a safe landing zone for writes that spill up to 4 bytes past the last
// packed byte.
const hllRegistersBytes = (hllRegisters*hllBits+7)/8 + 16

// getRegister reads the 6-bit register at index i out of the packed store
// regs. It loads an unaligned little-endian 16-bit word at the byte
// containing the register's low bit and shifts/masks it out, the same
// trick Redis's HLL_DENSE_GET_REGISTER macro uses.
func getRegister(regs []byte, i uint32) uint8 {
	debugAssert(i < hllRegisters, "register index %d out of range", i)

	bitPos := i * hllBits
	byteOff := bitPos / 8
	shift := bitPos % 8

	word := uint16(regs[byteOff]) | uint16(regs[byteOff+1])<<8
	return uint8((word >> shift) & 0x3f)
}

// setRegister writes a 6-bit value into the packed store regs at index i,
// via a read-modify-write of the same unaligned 16-bit word getRegister
// reads.
func setRegister(regs []byte, i uint32, v uint8) {
	debugAssert(i < hllRegisters, "register index %d out of range", i)
	debugAssert(v < hllHistLen, "register value %d exceeds %d-bit width", v, hllBits)

	bitPos := i * hllBits
	byteOff := bitPos / 8
	shift := bitPos % 8

	word := uint16(regs[byteOff]) | uint16(regs[byteOff+1])<<8
	word = (word &^ (0x3f << shift)) | (uint16(v&0x3f) << shift)

	regs[byteOff] = byte(word)
	regs[byteOff+1] = byte(word >> 8)
}

// mergeMaxInto element-wise maximizes the unpacked 1-byte-per-register
// scratch dst with the registers packed in src, dispatching to the AVX-512
// kernel when the compile-time shape allows it, the process-wide SIMD flag
// is set, and the CPU supports AVX-512F+BW; otherwise it falls back to the
// scalar kernel. Both paths must produce identical output.
func mergeMaxInto(dst []byte, src []byte) {
	if simdCapable() {
		mergeMaxAVX512(dst, src)
		return
	}
	mergeMaxScalar(dst, src)
}

// compressInto repacks the unpacked 1-byte-per-register scratch src into
// the 6-bit packed store dst, with the same SIMD/scalar dispatch as
// mergeMaxInto.
func compressInto(dst []byte, src []byte) {
	if simdCapable() {
		compressAVX512(dst, src)
		return
	}
	compressScalar(dst, src)
}

// simdCapable reports whether the AVX-512 register kernels may be used:
// the packed layout must have the shape the kernels were written for
// (6-bit registers, register count a multiple of 64 — true for the fixed
// hllRegisters/hllBits in this package), the process-wide flag must be on,
// and the CPU must actually support AVX-512F and AVX-512BW.
func simdCapable() bool {
	const shapeOK = hllBits == 6 && hllRegisters%64 == 0
	return shapeOK && simdEnabled.Load() && hasAVX512()
}

func mergeMaxScalar(dst []byte, src []byte) {
	for i := uint32(0); i < hllRegisters; i++ {
		v := getRegister(src, i)
		if v > dst[i] {
			dst[i] = v
		}
	}
}

func compressScalar(dst []byte, src []byte) {
	for i := uint32(0); i < hllRegisters; i++ {
		setRegister(dst, i, src[i])
	}
}

// registerHistogram rebuilds hist by counting, for each value 0..63, how
// many of the hllRegisters unpacked bytes in raw equal it. Used by merge to
// reconstruct the histogram from the unpacked scratch buffer.
func registerHistogram(hist *[hllHistLen]uint16, raw []byte) {
	for i := range hist {
		hist[i] = 0
	}
	for _, v := range raw {
		hist[v]++
	}
}
