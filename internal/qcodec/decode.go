package qcodec

import "github.com/deepteams/roiq/internal/pixel"

// DecState carries Q-variant decoder state across both one-shot and
// streaming calls. BPresent/PLimit bound how far the decoder may read
// from Bytes/write into Pixels before returning control to the caller
// (the streaming driver refills/drains between calls; one-shot decode
// sets BPresent=len(Bytes) and PLimit=len(Pixels) up front).
type DecState struct {
	Bytes  []byte
	Pixels []byte
	Px     pixel.Pixel
	Idx    Index

	B        int // next byte to read from Bytes
	BPresent int // bytes currently valid in Bytes
	PxPos    int // next byte offset to write in Pixels
	PLimit   int // byte offset at which Pixels is full

	Run       uint32
	PixelCnt  uint32 // total pixels the image contains
	PixelCurr uint32 // pixels decoded so far
}

// maxOpLen is the longest opcode a Q decoder may need to read (RGBA: 5
// bytes); the decode loops stop once fewer than maxOpLen+1 bytes remain,
// so a partial opcode never straddles a streaming refill past return.
const maxOpLen = 5

// decodeOpcode resolves one non-RUN opcode at s.B into s.Px, refreshing
// the running index for every opcode except INDEX (the slot already
// holds the value, so re-storing it would be a no-op hash computation).
// Unlike the R variant, Q's RGBA opcode is a self-contained 5-byte op
// (tag + r + g + b + a) — it never needs a following RGB-family opcode.
// If the byte at s.B is a RUN tag instead, decodeOpcode sets s.Run from
// its payload and returns without touching s.Px.
func decodeOpcode(s *DecState) {
	b1 := int(s.Bytes[s.B])
	s.B++
	switch {
	case b1&mask2 == opIndex:
		s.Px = s.Idx[b1&63]
		return
	case b1&mask2 == opDiff:
		s.Px.R += uint8((b1>>4)&3) - 2
		s.Px.G += uint8((b1>>2)&3) - 2
		s.Px.B += uint8(b1&3) - 2
	case b1&mask2 == opLuma:
		b2 := int(s.Bytes[s.B])
		s.B++
		vg := (b1 & 0x3f) - 32
		s.Px.R += uint8(vg - 8 + ((b2 >> 4) & 0x0f))
		s.Px.G += uint8(vg)
		s.Px.B += uint8(vg - 8 + (b2 & 0x0f))
	case b1 == opRGB:
		s.Px.R = s.Bytes[s.B]
		s.Px.G = s.Bytes[s.B+1]
		s.Px.B = s.Bytes[s.B+2]
		s.B += 3
	case b1 == opRGBA:
		s.Px.R = s.Bytes[s.B]
		s.Px.G = s.Bytes[s.B+1]
		s.Px.B = s.Bytes[s.B+2]
		s.Px.A = s.Bytes[s.B+3]
		s.B += 4
	default: // RUN: b1&mask2 == opRun
		s.Run = uint32(b1 & 0x3f)
		return
	}
	s.Idx[s.Px.Hash()] = s.Px
}

// decodeLoop drives the shared opcode dispatch loop for one of the four
// (input-channels, output-channels) specializations. outChannels selects
// whether a fourth output byte (alpha) is written per pixel; the input
// channel count never affects opcode parsing. None of the exported
// wrappers seeds s.Px.A: for a 3-channel source the caller starts s.Px
// at pixel.Start, whose alpha is 255.
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

// Decode4to4 decodes a 4-channel input stream into a 4-channel output buffer.
func Decode4to4(s *DecState) { decodeLoop(s, 4) }

// Decode4to3 decodes a 4-channel input stream, dropping alpha on output.
func Decode4to3(s *DecState) { decodeLoop(s, 3) }

// Decode3to4 decodes a 3-channel input stream, filling alpha with 255
// (s.Px.A must be pre-seeded to 255 by the caller before the first call).
func Decode3to4(s *DecState) { decodeLoop(s, 4) }

// Decode3to3 decodes a 3-channel input stream into a 3-channel output buffer.
func Decode3to3(s *DecState) { decodeLoop(s, 3) }
