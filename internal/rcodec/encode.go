// Package rcodec implements the R ("roif") variant: no running index, a
// wider LUMA232/LUMA464/LUMA777/RGB/RGBA/RUN opcode alphabet tagged in
// the low bits of the first opcode byte, and byte-aligned opcode widths
// chosen for branchless vector classification.
package rcodec

import "github.com/deepteams/roiq/internal/pixel"

// Opcode tags, matching the on-disk bit layout exactly. Unlike Q, the
// variant tag lives in the LOW bits of the first byte, with progressively
// wider masks: a single clear low bit selects LUMA232, leaving the
// remaining tag space partitioned by 2- and 3-bit masks.
const (
	opLuma232 = 0x00 // xxxxxxx0
	opLuma464 = 0x01 // xxxxxx01
	opLuma777 = 0x03 // xxxxx011
	opRun     = 0x07 // xxxxx111
	opRGB     = 0xf7 // 11110111
	opRGBA    = 0xff // 11111111
	opRunFull = 0xef // 11101111 -- RUN with the maximal 30-pixel payload

	mask1 = 0x01
	mask2 = 0x03
	mask3 = 0x07

	// runFullVal is the run length a RUN opcode's 5-bit payload can
	// encode at most (values 30 and 31 are reserved for RGB/RGBA, so the
	// usable payload range is 0..29, meaning lengths 1..30).
	runFullVal = 30
)

// abs8Biased computes (x<0) ? -x-1 : x, letting the LUMA range tests be
// expressed as plain unsigned comparisons.
func abs8Biased(x int8) uint8 {
	if x < 0 {
		return uint8(-x - 1)
	}
	return uint8(x)
}

// poke16LE and poke24LE append the low 2 or 3 bytes of a 32-bit value in
// little-endian order, matching the LUMA464/LUMA777 on-disk packing.
func poke16LE(bytes []byte, p *int, v uint32) {
	bytes[*p] = byte(v)
	bytes[*p+1] = byte(v >> 8)
	*p += 2
}

func poke24LE(bytes []byte, p *int, v uint32) {
	bytes[*p] = byte(v)
	bytes[*p+1] = byte(v >> 8)
	bytes[*p+2] = byte(v >> 16)
	*p += 3
}

// encodeRGB appends the LUMA232, LUMA464, LUMA777 or RGB opcode for the
// delta between px and prev. Unlike Q, the RGB fallback here stores the
// raw green-centered deltas (vg, vg_r, vg_b) rather than the literal
// pixel channels. The classification itself lives in encodeRGBDelta
// (megalut.go) so the mega-LUT generator and the scalar path share one
// source of truth.
func encodeRGB(bytes []byte, p *int, px, prev pixel.Pixel) {
	vr := int8(px.R - prev.R)
	vg := int8(px.G - prev.G)
	vb := int8(px.B - prev.B)
	encodeRGBDelta(bytes, p, vr, vg, vb)
}

// FlushRun is dumpRun exported for the streaming encoder, which needs to
// close out a pending run at end of stream.
func FlushRun(bytes []byte, p *int, run *uint32) { dumpRun(bytes, p, run) }

// dumpRun flushes *run as a chain of full 30-pixel RUN opcodes followed,
// if a remainder is left, by one more RUN opcode. *run is zeroed.
func dumpRun(bytes []byte, p *int, run *uint32) {
	for *run >= runFullVal {
		bytes[*p] = opRunFull
		*p++
		*run -= runFullVal
	}
	if *run > 0 {
		bytes[*p] = byte(opRun | uint8(*run-1)<<3)
		*p++
		*run = 0
	}
}

// dumpRunFullOnly flushes only the full-30 RUN opcodes, leaving any
// remainder uncommitted so it can carry across a chunk boundary.
func dumpRunFullOnly(bytes []byte, p *int, run *uint32) {
	for *run >= runFullVal {
		bytes[*p] = opRunFull
		*p++
		*run -= runFullVal
	}
}

// EncodeChunk3 encodes pixelCnt RGB pixels (3 bytes/pixel, RLE enabled)
// from pixels into bytes starting at *p.
func EncodeChunk3(pixels []byte, bytes []byte, p *int, pixelCnt uint32, prev *pixel.Pixel, run *uint32) {
	px := *prev
	pxPrev := *prev
	pos := 0
	end := int(pixelCnt-1) * 3
	for pos <= end {
		px = pixel.Pixel{R: pixels[pos], G: pixels[pos+1], B: pixels[pos+2], A: 255}
		for px.Equal(pxPrev) {
			*run++
			if pos == end {
				dumpRunFullOnly(bytes, p, run)
				*prev = pxPrev
				return
			}
			pos += 3
			px = pixel.Pixel{R: pixels[pos], G: pixels[pos+1], B: pixels[pos+2], A: 255}
		}
		dumpRun(bytes, p, run)
		encodeRGB(bytes, p, px, pxPrev)
		pxPrev = px
		pos += 3
	}
	*prev = pxPrev
}

// EncodeChunk3NoRLE is EncodeChunk3 with run-length detection skipped
// entirely, for descriptors that set the RLE-disabled colorspace bit.
func EncodeChunk3NoRLE(pixels []byte, bytes []byte, p *int, pixelCnt uint32, prev *pixel.Pixel) {
	px := *prev
	pxPrev := *prev
	end := int(pixelCnt-1) * 3
	for pos := 0; pos <= end; pos += 3 {
		px = pixel.Pixel{R: pixels[pos], G: pixels[pos+1], B: pixels[pos+2], A: 255}
		encodeRGB(bytes, p, px, pxPrev)
		pxPrev = px
	}
	*prev = pxPrev
}

// EncodeChunk4 is EncodeChunk3 extended with the RGBA opcode whenever
// alpha changes; the RGBA opcode is always immediately followed by the
// RGB-family opcode describing the new pixel's color delta.
func EncodeChunk4(pixels []byte, bytes []byte, p *int, pixelCnt uint32, prev *pixel.Pixel, run *uint32) {
	px := *prev
	pxPrev := *prev
	pos := 0
	end := int(pixelCnt-1) * 4
	for pos <= end {
		px = pixel.Pixel{R: pixels[pos], G: pixels[pos+1], B: pixels[pos+2], A: pixels[pos+3]}
		for px.Equal(pxPrev) {
			*run++
			if pos == end {
				dumpRunFullOnly(bytes, p, run)
				*prev = pxPrev
				return
			}
			pos += 4
			px = pixel.Pixel{R: pixels[pos], G: pixels[pos+1], B: pixels[pos+2], A: pixels[pos+3]}
		}
		dumpRun(bytes, p, run)
		if px.A != pxPrev.A {
			bytes[*p] = opRGBA
			bytes[*p+1] = px.A
			*p += 2
		}
		encodeRGB(bytes, p, px, pxPrev)
		pxPrev = px
		pos += 4
	}
	*prev = pxPrev
}

// EncodeChunk4NoRLE is EncodeChunk4 with run-length detection skipped.
func EncodeChunk4NoRLE(pixels []byte, bytes []byte, p *int, pixelCnt uint32, prev *pixel.Pixel) {
	px := *prev
	pxPrev := *prev
	end := int(pixelCnt-1) * 4
	for pos := 0; pos <= end; pos += 4 {
		px = pixel.Pixel{R: pixels[pos], G: pixels[pos+1], B: pixels[pos+2], A: pixels[pos+3]}
		if px.A != pxPrev.A {
			bytes[*p] = opRGBA
			bytes[*p+1] = px.A
			*p += 2
		}
		encodeRGB(bytes, p, px, pxPrev)
		pxPrev = px
	}
	*prev = pxPrev
}

// EncodeChunk3LUT is EncodeChunk3 with the color-delta classification
// replaced by a mega-LUT row copy.
func EncodeChunk3LUT(lut *MegaLUT, pixels []byte, bytes []byte, p *int, pixelCnt uint32, prev *pixel.Pixel, run *uint32) {
	px := *prev
	pxPrev := *prev
	pos := 0
	end := int(pixelCnt-1) * 3
	for pos <= end {
		px = pixel.Pixel{R: pixels[pos], G: pixels[pos+1], B: pixels[pos+2], A: 255}
		for px.Equal(pxPrev) {
			*run++
			if pos == end {
				dumpRunFullOnly(bytes, p, run)
				*prev = pxPrev
				return
			}
			pos += 3
			px = pixel.Pixel{R: pixels[pos], G: pixels[pos+1], B: pixels[pos+2], A: 255}
		}
		dumpRun(bytes, p, run)
		encodeRGBLUT(lut, bytes, p, px, pxPrev)
		pxPrev = px
		pos += 3
	}
	*prev = pxPrev
}

// EncodeChunk4LUT is EncodeChunk4 with the color-delta classification
// replaced by a mega-LUT row copy.
func EncodeChunk4LUT(lut *MegaLUT, pixels []byte, bytes []byte, p *int, pixelCnt uint32, prev *pixel.Pixel, run *uint32) {
	px := *prev
	pxPrev := *prev
	pos := 0
	end := int(pixelCnt-1) * 4
	for pos <= end {
		px = pixel.Pixel{R: pixels[pos], G: pixels[pos+1], B: pixels[pos+2], A: pixels[pos+3]}
		for px.Equal(pxPrev) {
			*run++
			if pos == end {
				dumpRunFullOnly(bytes, p, run)
				*prev = pxPrev
				return
			}
			pos += 4
			px = pixel.Pixel{R: pixels[pos], G: pixels[pos+1], B: pixels[pos+2], A: pixels[pos+3]}
		}
		dumpRun(bytes, p, run)
		if px.A != pxPrev.A {
			bytes[*p] = opRGBA
			bytes[*p+1] = px.A
			*p += 2
		}
		encodeRGBLUT(lut, bytes, p, px, pxPrev)
		pxPrev = px
		pos += 4
	}
	*prev = pxPrev
}
