//go:build avogen
// +build avogen

package main

import (
	. "github.com/mmcloughlin/avo/build"
	op "github.com/mmcloughlin/avo/operand"
	"github.com/mmcloughlin/avo/reg"
)

// This file generates registers_avx512_amd64.s.
// Run with: go run -tags avogen . -out ../../registers_avx512_amd64.s
// The Go declarations of the two kernels are kept in registers_amd64.go.
//
// The two kernels implement Redis's dense HLL register merge in AVX-512:
// registers are packed 6 bits wide, 64 of them per 48-byte group. The
// unpack kernel expands one 48-byte group into four 32-bit lanes per
// 16-byte sub-lane via a byte shuffle, masks out the four 6-bit fields
// packed into each lane, shifts each into its own byte, and takes a
// lane-wise unsigned max against the destination's current 64-byte chunk.
// The repack kernel runs the same masking in reverse, narrowing four 6-bit
// fields back into the low 24 bits of each lane, and writes 48 bytes per
// group back out.
//
// This file is excluded from normal builds by the avogen build tag; only
// the generated .s output ships.

func main() {
	genMergeMaxKernel()
	genCompressKernel()
	Generate()
}

func genMergeMaxKernel() {
	TEXT("mergeMaxAVX512Asm", NOSPLIT, "func(dst *byte, src *byte, blocks int)")
	Doc("mergeMaxAVX512Asm unpacks blocks groups of 64 six-bit registers from src")
	Doc("(48 packed bytes per group, starting 4 bytes before the first group read)")
	Doc("and element-wise maxes them into the 64-byte-per-group unpacked dst.")

	dstParam := Load(Param("dst"), GP64())
	dstBase := dstParam.(reg.GPVirtual)
	srcParam := Load(Param("src"), GP64())
	srcBase := srcParam.(reg.GPVirtual)
	blocks := Load(Param("blocks"), GP64())

	// Byte i of this table is the control byte VPSHUFB uses to produce
	// output byte i of each 128-bit lane: e.g. lane 0 pulls its first
	// three output bytes from input bytes 4, 5 and 6 (skipping the
	// leading pad byte at offset 0..3) and zeros every fourth byte.
	shuffle := GLOBL("shuffleTable", NOPTR|RODATA)
	shuffleBytes := []byte{
		4, 5, 6, 0xff, 7, 8, 9, 0xff, 10, 11, 12, 0xff, 13, 14, 15, 0xff,
		0, 1, 2, 0xff, 3, 4, 5, 0xff, 6, 7, 8, 0xff, 9, 10, 11, 0xff,
		4, 5, 6, 0xff, 7, 8, 9, 0xff, 10, 11, 12, 0xff, 13, 14, 15, 0xff,
		0, 1, 2, 0xff, 3, 4, 5, 0xff, 6, 7, 8, 0xff, 9, 10, 11, 0xff,
	}
	for i, b := range shuffleBytes {
		DATA(i, op.U8(b))
	}
	_ = shuffle

	mask0 := GLOBL("maskLane0", NOPTR|RODATA)
	DATA(0, op.U32(0x0000003f))
	_ = mask0
	mask1 := GLOBL("maskLane1", NOPTR|RODATA)
	DATA(0, op.U32(0x00000fc0))
	_ = mask1
	mask2 := GLOBL("maskLane2", NOPTR|RODATA)
	DATA(0, op.U32(0x0003f000))
	_ = mask2
	mask3 := GLOBL("maskLane3", NOPTR|RODATA)
	DATA(0, op.U32(0x00fc0000))
	_ = mask3

	r := GP64()
	MOVQ(srcBase, r)
	t := GP64()
	MOVQ(dstBase, t)

	n := GP64()
	MOVQ(blocks, n)

	shuf := ZMM()
	VMOVDQU64(op.Mem{Base: shuffle.Base()}, shuf)

	m0 := ZMM()
	VPBROADCASTD(op.Mem{Base: mask0.Base()}, m0)
	m1 := ZMM()
	VPBROADCASTD(op.Mem{Base: mask1.Base()}, m1)
	m2 := ZMM()
	VPBROADCASTD(op.Mem{Base: mask2.Base()}, m2)
	m3 := ZMM()
	VPBROADCASTD(op.Mem{Base: mask3.Base()}, m3)

	loop := "merge_loop"
	done := "merge_done"

	Label(loop)
	TESTQ(n, n)
	JZ(op.LabelRef(done))

	lo := YMM()
	VMOVDQU(op.Mem{Base: r}, lo)
	hi := YMM()
	VMOVDQU(op.Mem{Base: r, Disp: 24}, hi)

	x := ZMM()
	VINSERTI64X4(op.Imm(1), hi, ZMM_from(lo), x)
	VPSHUFB(shuf, x, x)

	a0 := ZMM()
	VPANDD(m0, x, a0)
	a1 := ZMM()
	VPANDD(m1, x, a1)
	a2 := ZMM()
	VPANDD(m2, x, a2)
	a3 := ZMM()
	VPANDD(m3, x, a3)

	VPSLLD(op.Imm(2), a1, a1)
	VPSLLD(op.Imm(4), a2, a2)
	VPSLLD(op.Imm(6), a3, a3)

	y0 := ZMM()
	VPORD(a0, a1, y0)
	y1 := ZMM()
	VPORD(a2, a3, y1)
	y := ZMM()
	VPORD(y0, y1, y)

	cur := ZMM()
	VMOVDQU64(op.Mem{Base: t}, cur)
	VPMAXUB(cur, y, cur)
	VMOVDQU64(cur, op.Mem{Base: t})

	ADDQ(op.Imm(48), r)
	ADDQ(op.Imm(64), t)
	DECQ(n)
	JMP(op.LabelRef(loop))

	Label(done)
	RET()
}

func genCompressKernel() {
	TEXT("compressAVX512Asm", NOSPLIT, "func(dst *byte, src *byte, blocks int)")
	Doc("compressAVX512Asm repacks blocks groups of 64 unpacked registers from src")
	Doc("into 48-byte groups of 6-bit packed registers written to dst.")

	dstParam := Load(Param("dst"), GP64())
	dstBase := dstParam.(reg.GPVirtual)
	srcParam := Load(Param("src"), GP64())
	srcBase := srcParam.(reg.GPVirtual)
	blocks := Load(Param("blocks"), GP64())

	mask0 := GLOBL("cMaskLane0", NOPTR|RODATA)
	DATA(0, op.U32(0x0000003f))
	_ = mask0
	mask1 := GLOBL("cMaskLane1", NOPTR|RODATA)
	DATA(0, op.U32(0x00003f00))
	_ = mask1
	mask2 := GLOBL("cMaskLane2", NOPTR|RODATA)
	DATA(0, op.U32(0x003f0000))
	_ = mask2
	mask3 := GLOBL("cMaskLane3", NOPTR|RODATA)
	DATA(0, op.U32(0x3f000000))
	_ = mask3

	r := GP64()
	MOVQ(srcBase, r)
	t := GP64()
	MOVQ(dstBase, t)
	n := GP64()
	MOVQ(blocks, n)

	m0 := ZMM()
	VPBROADCASTD(op.Mem{Base: mask0.Base()}, m0)
	m1 := ZMM()
	VPBROADCASTD(op.Mem{Base: mask1.Base()}, m1)
	m2 := ZMM()
	VPBROADCASTD(op.Mem{Base: mask2.Base()}, m2)
	m3 := ZMM()
	VPBROADCASTD(op.Mem{Base: mask3.Base()}, m3)

	loop := "compress_loop"
	done := "compress_done"

	Label(loop)
	TESTQ(n, n)
	JZ(op.LabelRef(done))

	x := ZMM()
	VMOVDQU64(op.Mem{Base: r}, x)

	a0 := ZMM()
	VPANDD(m0, x, a0)
	a1 := ZMM()
	VPANDD(m1, x, a1)
	a2 := ZMM()
	VPANDD(m2, x, a2)
	a3 := ZMM()
	VPANDD(m3, x, a3)

	VPSRLD(op.Imm(2), a1, a1)
	VPSRLD(op.Imm(4), a2, a2)
	VPSRLD(op.Imm(6), a3, a3)

	y0 := ZMM()
	VPORD(a0, a1, y0)
	y1 := ZMM()
	VPORD(a2, a3, y1)
	y := ZMM()
	VPORD(y0, y1, y)

	// Extract each 128-bit sub-lane and store its low 3 bytes (the packed
	// 24-bit payload) individually: this produces the same 48 output bytes
	// per group a masked 32-bit scatter would, without needing one.
	for lane := 0; lane < 4; lane++ {
		sub := XMM()
		VEXTRACTI32X4(op.Imm(uint64(lane)), y, sub)
		for word := 0; word < 4; word++ {
			v := GP32()
			PEXTRD(op.Imm(uint64(word)), sub, v)
			MOVL(v, op.Mem{Base: t, Disp: (lane*4 + word) * 3})
		}
	}

	ADDQ(op.Imm(64), r)
	ADDQ(op.Imm(48), t)
	DECQ(n)
	JMP(op.LabelRef(loop))

	Label(done)
	RET()
}

func ZMM_from(y reg.VecVirtual) reg.VecVirtual { return y }
