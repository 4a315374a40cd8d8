package rcodec

import "github.com/deepteams/roiq/internal/pixel"

// DecState carries R-variant decoder state across both one-shot and
// streaming calls, mirroring qcodec.DecState but with no running index.
type DecState struct {
	Bytes  []byte
	Pixels []byte
	Px     pixel.Pixel

	B        int
	BPresent int
	PxPos    int
	PLimit   int

	Run       uint32
	PixelCnt  uint32
	PixelCurr uint32
}

// maxOpLen bounds how many bytes a single pixel's opcode sequence can
// consume: a worst case RGBA (2 bytes) immediately followed by RGB (4
// bytes) is 6 bytes. The decode loops stop once fewer than maxOpLen+1
// bytes remain so a partial sequence never straddles a refill boundary.
const maxOpLen = 6

// decodeOpcode resolves one pixel's worth of opcodes at s.B into s.Px.
// An RGBA opcode only ever supplies a new alpha value and is always
// followed immediately by one of LUMA232/LUMA464/LUMA777/RGB describing
// the color delta, so this loops at most twice: once to consume RGBA,
// once to consume the color opcode that must follow it.
func decodeOpcode(s *DecState) {
	for {
		b1 := int(s.Bytes[s.B])
		s.B++
		switch {
		case b1&mask1 == opLuma232:
			vg := int8((b1>>1)&7) - 6
			s.Px.R += uint8(vg) + uint8((b1>>4)&3)
			s.Px.G += uint8(vg) + 2
			s.Px.B += uint8(vg) + uint8((b1>>6)&3)
			return
		case b1&mask2 == opLuma464:
			b2 := int(s.Bytes[s.B])
			s.B++
			vg := int8((b1>>2)&63) - 40
			s.Px.R += uint8(vg) + uint8(b2&0x0f)
			s.Px.G += uint8(vg) + 8
			s.Px.B += uint8(vg) + uint8((b2>>4)&0x0f)
			return
		case b1&mask3 == opLuma777:
			b2 := int(s.Bytes[s.B])
			b3 := int(s.Bytes[s.B+1])
			s.B += 2
			vg := int16(((b2&3)<<5)|((b1>>3)&31)) - 128
			s.Px.R += uint8(vg) + uint8(((b3&1)<<6)|((b2>>2)&63))
			s.Px.G += uint8(vg) + 64
			s.Px.B += uint8(vg) + uint8((b3>>1)&127)
			return
		case b1 == opRGB:
			vg := int8(s.Bytes[s.B])
			vgR := int8(s.Bytes[s.B+1])
			vgB := int8(s.Bytes[s.B+2])
			s.B += 3
			s.Px.R += uint8(vg + vgR)
			s.Px.G += uint8(vg)
			s.Px.B += uint8(vg + vgB)
			return
		case b1 == opRGBA:
			s.Px.A = s.Bytes[s.B]
			s.B++
			// Falls through to the next iteration: an RGBA opcode never
			// stands alone, it is always paired with a following
			// RGB-family opcode carrying the color delta.
		default: // RUN: b1&mask3 == opRun
			s.Run = uint32((b1 >> 3) & 0x1f)
			return
		}
	}
}

// decodeLoop drives the shared opcode dispatch loop for one of the four
// (input-channels, output-channels) specializations.
func decodeLoop(s *DecState, outChannels int) {
	for s.B+maxOpLen < s.BPresent && s.PxPos+outChannels <= s.PLimit && s.PixelCnt != s.PixelCurr {
		if s.Run > 0 {
			s.Run--
		} else {
			decodeOpcode(s)
		}
		s.Pixels[s.PxPos+0] = s.Px.R
		s.Pixels[s.PxPos+1] = s.Px.G
		s.Pixels[s.PxPos+2] = s.Px.B
		if outChannels == 4 {
			s.Pixels[s.PxPos+3] = s.Px.A
		}
		s.PxPos += outChannels
		s.PixelCurr++
	}
}

// Decode4to4 decodes a 4-channel input stream into a 4-channel output.
func Decode4to4(s *DecState) { decodeLoop(s, 4) }

// Decode4to3 decodes a 4-channel input stream, dropping alpha on output.
func Decode4to3(s *DecState) { decodeLoop(s, 3) }

// Decode3to4 decodes a 3-channel input stream, filling alpha with 255
// (s.Px.A must be pre-seeded to 255 before the first call).
func Decode3to4(s *DecState) { decodeLoop(s, 4) }

// Decode3to3 decodes a 3-channel input stream into a 3-channel output.
func Decode3to3(s *DecState) { decodeLoop(s, 3) }
