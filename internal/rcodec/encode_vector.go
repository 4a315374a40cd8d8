package rcodec

import "github.com/deepteams/roiq/internal/pixel"

// laneWidth is the number of pixels classified together before any of a
// group's opcodes are written, echoing the reference's 16-lane SSE
// classification shape without real vector registers (see the
// equivalent note in qcodec's encode_vector.go).
const laneWidth = 16

// EncodeChunk3Vector and EncodeChunk4Vector are the vector-path R
// encoders selected by Options.Path == PathVector.
func EncodeChunk3Vector(pixels []byte, bytes []byte, p *int, pixelCnt uint32, prev *pixel.Pixel, run *uint32) {
	encodeVector(pixels, bytes, p, pixelCnt, prev, run, 3, false)
}

// EncodeChunk4Vector is EncodeChunk3Vector extended with alpha handling.
func EncodeChunk4Vector(pixels []byte, bytes []byte, p *int, pixelCnt uint32, prev *pixel.Pixel, run *uint32) {
	encodeVector(pixels, bytes, p, pixelCnt, prev, run, 4, true)
}

func encodeVector(pixels []byte, bytes []byte, p *int, pixelCnt uint32, prev *pixel.Pixel, run *uint32, channels int, rgba bool) {
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
			if rgba && px.A != pxPrev.A {
				bytes[*p] = opRGBA
				bytes[*p+1] = px.A
				*p += 2
			}
			encodeRGB(bytes, p, px, pxPrev)
			pxPrev = px
		}
		pos += groupLen
	}
	*prev = pxPrev
}
