// Package qcodec implements the Q ("qoif") variant: a 64-entry running
// pixel index plus DIFF/LUMA/RGB/RGBA/RUN opcodes, tagged in the top two
// bits of the first opcode byte.
package qcodec

import "github.com/deepteams/roiq/internal/pixel"

// Opcode tags, matching the on-disk bit layout exactly.
const (
	opIndex   = 0x00 // 00xxxxxx
	opDiff    = 0x40 // 01xxxxxx
	opLuma    = 0x80 // 10xxxxxx
	opRun     = 0xc0 // 11xxxxxx
	opRGB     = 0xfe // 11111110
	opRGBA    = 0xff // 11111111
	opRunFull = 0xfd // 11111101

	mask2 = 0xc0

	// runFullVal is the payload of a full run byte: 62 consecutive pixels.
	runFullVal = 62
)

// Index is the 64-entry running-color cache, hashed by pixel.Pixel.Hash.
type Index [64]pixel.Pixel

// abs8Biased computes (x<0) ? -x-1 : x for a signed 8-bit delta, the
// "absolute value minus one" bias that lets the DIFF/LUMA range tests be
// expressed as plain unsigned comparisons.
func abs8Biased(x int8) uint8 {
	if x < 0 {
		return uint8(-x - 1)
	}
	return uint8(x)
}

// encodeRGB appends the DIFF, LUMA or RGB opcode for the delta between
// px and prev (alpha is handled by the caller before this is reached).
func encodeRGB(bytes []byte, p *int, px, prev pixel.Pixel) {
	vr := int8(px.R - prev.R)
	vg := int8(px.G - prev.G)
	vb := int8(px.B - prev.B)
	vgR := vr - vg
	vgB := vb - vg

	ag := abs8Biased(vg)
	d := abs8Biased(vr) | abs8Biased(vb)
	l := abs8Biased(vgB) | abs8Biased(vgR)

	switch {
	case d < 2 && ag < 2:
		bytes[*p] = byte(opDiff | uint8(vr+2)<<4 | uint8(vg+2)<<2 | uint8(vb+2))
		*p++
	case l < 8 && ag < 32:
		bytes[*p] = byte(opLuma | uint8(vg+32))
		bytes[*p+1] = byte(uint8(vgR+8)<<4 | uint8(vgB+8))
		*p += 2
	default:
		bytes[*p] = opRGB
		bytes[*p+1] = px.R
		bytes[*p+2] = px.G
		bytes[*p+3] = px.B
		*p += 4
	}
}

// FlushRun is dumpRun exported for callers outside this package (the
// streaming encoder needs it to close out a pending run at end of
// stream, without re-running the whole encode loop over zero pixels).
func FlushRun(bytes []byte, p *int, run *uint32) { dumpRun(bytes, p, run) }

// dumpRun flushes *run as full-run bytes (62 pixels each) followed, if a
// remainder is left, by one RUN opcode. *run is zeroed on return.
func dumpRun(bytes []byte, p *int, run *uint32) {
	for *run >= runFullVal {
		bytes[*p] = opRunFull
		*p++
		*run -= runFullVal
	}
	if *run > 0 {
		bytes[*p] = byte(opRun | uint8(*run-1))
		*p++
		*run = 0
	}
}

// EncodeChunk3 encodes pixelCnt RGB pixels from pixels (3 bytes/pixel)
// into bytes starting at *p, carrying run/prev/idx across the call so
// streaming chunks and chunk boundaries compose correctly.
func EncodeChunk3(pixels []byte, bytes []byte, p *int, pixelCnt uint32, prev *pixel.Pixel, idx *Index, run *uint32) {
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
		h := px.Hash()
		if idx[h].Equal(px) {
			bytes[*p] = byte(opIndex | h)
			*p++
			pxPrev = px
			pos += 3
			continue
		}
		idx[h] = px
		encodeRGB(bytes, p, px, pxPrev)
		pxPrev = px
		pos += 3
	}
	*prev = pxPrev
}

// EncodeChunk4 is EncodeChunk3 extended with the RGBA opcode whenever
// alpha changes between consecutive pixels.
func EncodeChunk4(pixels []byte, bytes []byte, p *int, pixelCnt uint32, prev *pixel.Pixel, idx *Index, run *uint32) {
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
		h := px.Hash()
		if idx[h].Equal(px) {
			bytes[*p] = byte(opIndex | h)
			*p++
			pxPrev = px
			pos += 4
			continue
		}
		idx[h] = px
		if px.A != pxPrev.A {
			bytes[*p] = opRGBA
			bytes[*p+1] = px.R
			bytes[*p+2] = px.G
			bytes[*p+3] = px.B
			bytes[*p+4] = px.A
			*p += 5
			pxPrev = px
			pos += 4
			continue
		}
		encodeRGB(bytes, p, px, pxPrev)
		pxPrev = px
		pos += 4
	}
	*prev = pxPrev
}

// dumpRunFullOnly flushes only the full-run bytes of *run, leaving any
// remainder in place: used when the tail of a chunk ends mid-run, so the
// remainder carries across to the next chunk or gets flushed at
// end-of-stream (the run is only ever terminated by a non-RUN opcode or
// by the final flush in the encoder driver).
func dumpRunFullOnly(bytes []byte, p *int, run *uint32) {
	for *run >= runFullVal {
		bytes[*p] = opRunFull
		*p++
		*run -= runFullVal
	}
}
