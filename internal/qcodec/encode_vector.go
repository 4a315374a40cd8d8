package qcodec

import "github.com/deepteams/roiq/internal/pixel"

// laneWidth is the number of pixels processed per vector group, matching
// the 4-pixel output vector the reference SSE encoder packs per
// iteration.
const laneWidth = 4

// EncodeChunk3Vector and EncodeChunk4Vector are the "vector path" Q
// encoders selected by Options.Path == PathVector. Go has no portable SIMD
// intrinsics the way the reference implementation's immintrin.h macros
// do; this implementation keeps the *shape* of the reference algorithm —
// load a small fixed-width lane group before emitting any of its
// opcodes, rather than one pixel at a time — while computing each lane
// with the identical scalar arithmetic, which is what makes its output
// byte-for-byte identical to EncodeChunk3/EncodeChunk4 (the property §8
// of the spec calls scalar/SIMD equivalence). The reference's branchless
// shuffle-LUT byte compaction has no equivalent without real vector
// registers, so within a lane group opcodes are still appended in
// sequence rather than compacted by a shuffle mask.
func EncodeChunk3Vector(pixels []byte, bytes []byte, p *int, pixelCnt uint32, prev *pixel.Pixel, idx *Index, run *uint32) {
	encodeVector(pixels, bytes, p, pixelCnt, prev, idx, run, 3, false)
}

// EncodeChunk4Vector is EncodeChunk3Vector extended with alpha handling.
func EncodeChunk4Vector(pixels []byte, bytes []byte, p *int, pixelCnt uint32, prev *pixel.Pixel, idx *Index, run *uint32) {
	encodeVector(pixels, bytes, p, pixelCnt, prev, idx, run, 4, true)
}

func encodeVector(pixels []byte, bytes []byte, p *int, pixelCnt uint32, prev *pixel.Pixel, idx *Index, run *uint32, channels int, rgba bool) {
	pxPrev := *prev
	var lane [laneWidth]pixel.Pixel
	n := int(pixelCnt)
	pos := 0
	for pos < n {
		groupLen := laneWidth
		if pos+groupLen > n {
			groupLen = n - pos
		}
		for i := 0; i < groupLen; i++ {
			o := (pos + i) * channels
			px := pixel.Pixel{R: pixels[o], G: pixels[o+1], B: pixels[o+2], A: 255}
			if rgba {
				px.A = pixels[o+3]
			}
			lane[i] = px
		}
		for i := 0; i < groupLen; i++ {
			px := lane[i]
			if px.Equal(pxPrev) {
				*run++
				continue
			}
			dumpRun(bytes, p, run)
			h := px.Hash()
			if idx[h].Equal(px) {
				bytes[*p] = byte(opIndex | h)
				*p++
				pxPrev = px
				continue
			}
			idx[h] = px
			if rgba && px.A != pxPrev.A {
				bytes[*p] = opRGBA
				bytes[*p+1] = px.R
				bytes[*p+2] = px.G
				bytes[*p+3] = px.B
				bytes[*p+4] = px.A
				*p += 5
				pxPrev = px
				continue
			}
			encodeRGB(bytes, p, px, pxPrev)
			pxPrev = px
		}
		pos += groupLen
	}
	*prev = pxPrev
}
