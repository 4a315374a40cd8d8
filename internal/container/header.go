// Package container implements the 14-byte file header shared by the Q
// ("qoif") and R ("roif") variants, and the 8-byte stream terminator.
package container

import (
	"errors"
	"fmt"

	"github.com/deepteams/roiq/internal/bitio"
)

// Variant selects which magic bytes and colorspace range a header uses.
type Variant uint8

const (
	// VariantQ is the baseline "qoif" format: 64-entry running index,
	// 11000000-tagged RUN opcodes, colorspace in {0,1}.
	VariantQ Variant = iota
	// VariantR is the extended "roif" format: no index, wider opcode
	// alphabet, colorspace in 0..3 (bit 1 optionally disables RLE).
	VariantR
)

func (v Variant) String() string {
	if v == VariantR {
		return "roif"
	}
	return "qoif"
}

const (
	// HeaderSize is the fixed on-disk header length in bytes.
	HeaderSize = 14
	// TerminatorSize is the length of the 8-byte end-of-stream marker.
	TerminatorSize = 8
	// MaxPixels bounds width*height: only images with fewer pixels are
	// encoded or decoded; MaxPixels or more is rejected as
	// InvalidDescriptor.
	MaxPixels = 400_000_000
)

var magicQ = [4]byte{'q', 'o', 'i', 'f'}
var magicR = [4]byte{'r', 'o', 'i', 'f'}

// Terminator is the 8-byte marker appended after the last opcode.
var Terminator = [TerminatorSize]byte{0, 0, 0, 0, 0, 0, 0, 1}

// Errors returned by Parse and by descriptor validation. These map onto
// the InvalidDescriptor/BadMagic error kinds of the core contract.
var (
	ErrBadMagic      = errors.New("roiq: bad magic bytes")
	ErrZeroDimension = errors.New("roiq: width or height is zero")
	ErrBadChannels   = errors.New("roiq: channels must be 3 or 4")
	ErrBadColorspace = errors.New("roiq: colorspace out of range")
	ErrTooManyPixels = errors.New("roiq: width*height exceeds the maximum")
	ErrShortHeader   = errors.New("roiq: input shorter than the header")
)

// Descriptor describes an image: its dimensions, channel count, and the
// (purely informative) colorspace byte.
type Descriptor struct {
	Width      uint32
	Height     uint32
	Channels   uint8 // 3 (RGB) or 4 (RGBA)
	Colorspace uint8
}

// Pixels returns Width*Height as a uint64 to avoid overflow during the
// MaxPixels comparison.
func (d Descriptor) Pixels() uint64 {
	return uint64(d.Width) * uint64(d.Height)
}

// Validate checks the descriptor fields against the constraints for the
// given variant: width/height nonzero, channels in {3,4}, pixel count
// under MaxPixels, and colorspace <= 1 (Q) or <= 3 (R).
func (d Descriptor) Validate(v Variant) error {
	if d.Width == 0 || d.Height == 0 {
		return ErrZeroDimension
	}
	if d.Channels != 3 && d.Channels != 4 {
		return ErrBadChannels
	}
	if d.Pixels() >= MaxPixels {
		return ErrTooManyPixels
	}
	maxColorspace := uint8(1)
	if v == VariantR {
		maxColorspace = 3
	}
	if d.Colorspace > maxColorspace {
		return ErrBadColorspace
	}
	return nil
}

// RLEDisabled reports whether an R-variant colorspace byte has bit 1 set,
// the encoder's hint that it chose to skip the RLE opcode class. Q headers
// never set this bit (Validate rejects colorspace > 1 for VariantQ).
func (d Descriptor) RLEDisabled() bool {
	return d.Colorspace&0x02 != 0
}

// WriteHeader appends the 14-byte header for v/desc to bytes at *p and
// advances the cursor by HeaderSize.
func WriteHeader(bytes []byte, p *int, v Variant, desc Descriptor) {
	magic := magicQ
	if v == VariantR {
		magic = magicR
	}
	bitio.PokeU32BE(bytes, p, uint32(magic[0])<<24|uint32(magic[1])<<16|uint32(magic[2])<<8|uint32(magic[3]))
	bitio.PokeU32BE(bytes, p, desc.Width)
	bitio.PokeU32BE(bytes, p, desc.Height)
	bitio.PokeU8(bytes, p, desc.Channels)
	bitio.PokeU8(bytes, p, desc.Colorspace)
}

// ParseHeader parses the 14-byte header at the front of data, returning
// the variant (determined by the magic bytes), the descriptor, and an
// error if the header is malformed or the descriptor fails Validate.
func ParseHeader(data []byte) (Variant, Descriptor, error) {
	if len(data) < HeaderSize {
		return 0, Descriptor{}, ErrShortHeader
	}
	p := 0
	magic := bitio.PeekU32BE(data, &p)
	var v Variant
	switch magic {
	case uint32(magicQ[0])<<24 | uint32(magicQ[1])<<16 | uint32(magicQ[2])<<8 | uint32(magicQ[3]):
		v = VariantQ
	case uint32(magicR[0])<<24 | uint32(magicR[1])<<16 | uint32(magicR[2])<<8 | uint32(magicR[3]):
		v = VariantR
	default:
		return 0, Descriptor{}, fmt.Errorf("%w: %#08x", ErrBadMagic, magic)
	}
	desc := Descriptor{
		Width:      bitio.PeekU32BE(data, &p),
		Height:     bitio.PeekU32BE(data, &p),
		Channels:   data[p],
		Colorspace: data[p+1],
	}
	if err := desc.Validate(v); err != nil {
		return 0, Descriptor{}, err
	}
	return v, desc, nil
}
