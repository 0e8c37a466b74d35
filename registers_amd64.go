//go:build amd64

package hllpp

import "golang.org/x/sys/cpu"

// hasAVX512 reports whether the current CPU supports both AVX-512F and
// AVX-512BW, the two feature sets the merge/compress kernels in
// registers_avx512_amd64.s require.
func hasAVX512() bool {
	return cpu.X86.HasAVX512F && cpu.X86.HasAVX512BW
}

// mergeMaxAVX512Asm and compressAVX512Asm are implemented in
// registers_avx512_amd64.s, generated by internal/avogen. blocks is the
// number of 64-register groups to process; for this package's fixed
// hllRegisters that is always hllRegisters/64.
//
//go:noescape
func mergeMaxAVX512Asm(dst *byte, src *byte, blocks int)

//go:noescape
func compressAVX512Asm(dst *byte, src *byte, blocks int)

// mergeMaxAVX512 element-wise maximizes unpacked dst with the registers
// packed in src using the AVX-512 kernel. Each 64-register group the kernel
// processes reads a 56-byte window starting 4 bytes before that group's
// nominal 48-byte packed offset, so the very first group reads 4 bytes
// before the start of src and the very last group reads past its nominal
// end. Rather than relying on the caller's allocation to make both reads
// safe, this wrapper copies all of src into a local buffer with an
// explicit 4-byte leading pad, retaining src's own trailing pad bytes
// verbatim so the last group's over-read lands on real (zero) pad bytes
// instead of unrelated stack memory.
func mergeMaxAVX512(dst []byte, src []byte) {
	var padded [4 + hllRegistersBytes]byte
	copy(padded[4:], src)

	mergeMaxAVX512Asm(&dst[0], &padded[0], hllRegisters/64)
}

// compressAVX512 repacks the unpacked register bytes in src into the
// 6-bit packed store dst using the AVX-512 kernel. dst must have the usual
// hllRegistersBytes trailing pad: the kernel's final store group writes up
// to 4 bytes past the last nominal packed byte.
func compressAVX512(dst []byte, src []byte) {
	compressAVX512Asm(&dst[0], &src[0], hllRegisters/64)
}
