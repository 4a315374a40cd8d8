package roiq

import (
	"errors"
	"fmt"

	"github.com/deepteams/roiq/internal/container"
	"github.com/deepteams/roiq/internal/pixel"
	"github.com/deepteams/roiq/internal/qcodec"
	"github.com/deepteams/roiq/internal/rcodec"
)

// Descriptor describes an image's dimensions, channel count and
// (informative) colorspace byte. It re-exports internal/container's
// Descriptor so callers never need that import path.
type Descriptor = container.Descriptor

// maxOpcodeBytesPerPixel bounds how much an encoded stream can grow
// relative to raw pixel data: the largest single-pixel opcode either
// variant emits is Q's 5-byte RGBA, or R's 2-byte RGBA-alpha prefix
// plus a 4-byte RGB fallback (6 bytes). Sizing output buffers against
// this bound means EncodeBuffer never needs to grow its allocation
// mid-encode.
const maxOpcodeBytesPerPixel = 6

// EncodeBuffer encodes pixels (desc.Channels bytes per pixel, row-major,
// desc.Width*desc.Height pixels) into a complete roiq file: header,
// opcode stream, and 8-byte terminator.
func EncodeBuffer(pixels []byte, desc Descriptor, opts Options) ([]byte, error) {
	if err := desc.Validate(opts.Variant); err != nil {
		return nil, newError("EncodeBuffer", InvalidDescriptor, err)
	}
	if err := opts.validate(); err != nil {
		return nil, newError("EncodeBuffer", UnknownOption, err)
	}
	want := int(desc.Pixels()) * int(desc.Channels)
	if len(pixels) != want {
		return nil, newError("EncodeBuffer", InvalidDescriptor,
			fmt.Errorf("pixel buffer has %d bytes, descriptor wants %d", len(pixels), want))
	}

	out := make([]byte, container.HeaderSize+int(desc.Pixels())*maxOpcodeBytesPerPixel+container.TerminatorSize)
	p := 0
	container.WriteHeader(out, &p, opts.Variant, desc)

	prev := pixel.Start
	var run uint32
	n := uint32(desc.Pixels())

	switch opts.Variant {
	case container.VariantQ:
		var idx qcodec.Index
		switch {
		case desc.Channels == 4 && desc.Colorspace == 0 && opts.resolvePath() == PathVector:
			qcodec.EncodeChunk4Vector(pixels, out, &p, n, &prev, &idx, &run)
		case desc.Channels == 4:
			qcodec.EncodeChunk4(pixels, out, &p, n, &prev, &idx, &run)
		case desc.Channels == 3 && opts.resolvePath() == PathVector:
			qcodec.EncodeChunk3Vector(pixels, out, &p, n, &prev, &idx, &run)
		default:
			qcodec.EncodeChunk3(pixels, out, &p, n, &prev, &idx, &run)
		}
	case container.VariantR:
		noRLE := opts.DisableRLE || desc.RLEDisabled()
		path := opts.resolvePath()
		switch {
		case desc.Channels == 4 && noRLE:
			rcodec.EncodeChunk4NoRLE(pixels, out, &p, n, &prev)
		case desc.Channels == 4 && path == PathMegaLUT:
			rcodec.EncodeChunk4LUT(opts.MegaLUT, pixels, out, &p, n, &prev, &run)
		case desc.Channels == 4 && path == PathVector:
			rcodec.EncodeChunk4Vector(pixels, out, &p, n, &prev, &run)
		case desc.Channels == 4:
			rcodec.EncodeChunk4(pixels, out, &p, n, &prev, &run)
		case noRLE:
			rcodec.EncodeChunk3NoRLE(pixels, out, &p, n, &prev)
		case path == PathMegaLUT:
			rcodec.EncodeChunk3LUT(opts.MegaLUT, pixels, out, &p, n, &prev, &run)
		case path == PathVector:
			rcodec.EncodeChunk3Vector(pixels, out, &p, n, &prev, &run)
		default:
			rcodec.EncodeChunk3(pixels, out, &p, n, &prev, &run)
		}
		if !opts.DisableRLE && !desc.RLEDisabled() {
			rcodec.FlushRun(out, &p, &run)
		}
	}
	if opts.Variant == container.VariantQ {
		qcodec.FlushRun(out, &p, &run)
	}

	copy(out[p:], container.Terminator[:])
	p += container.TerminatorSize
	return out[:p], nil
}

// resolveChannels maps a caller's requested_channels (0, 3 or 4, per
// the decode contract) onto a concrete output channel count, with 0
// meaning "whatever the descriptor itself carries".
func resolveChannels(requested int, native uint8) (int, error) {
	switch requested {
	case 0:
		return int(native), nil
	case 3, 4:
		return requested, nil
	default:
		return 0, fmt.Errorf("requested_channels must be 0, 3 or 4, got %d", requested)
	}
}

// DecodeBuffer parses the header of data, then decodes the full opcode
// stream into a freshly allocated pixel buffer. requestedChannels picks
// the output width: 0 keeps the descriptor's own channel count, 3 drops
// alpha (a 3-channel source is returned as it is), and 4 always
// produces alpha, filling it with 255 for a 3-channel source.
func DecodeBuffer(data []byte, requestedChannels int) ([]byte, Descriptor, Variant, error) {
	v, desc, err := container.ParseHeader(data)
	if err != nil {
		switch {
		case err == container.ErrShortHeader:
			return nil, Descriptor{}, 0, newError("DecodeBuffer", ShortRead, err)
		case errors.Is(err, container.ErrBadMagic):
			return nil, Descriptor{}, 0, newError("DecodeBuffer", BadMagic, err)
		default:
			return nil, Descriptor{}, 0, newError("DecodeBuffer", InvalidDescriptor, err)
		}
	}
	outChannels, err := resolveChannels(requestedChannels, desc.Channels)
	if err != nil {
		return nil, Descriptor{}, 0, newError("DecodeBuffer", UnknownOption, err)
	}

	n := uint32(desc.Pixels())
	pixels := make([]byte, int(n)*outChannels)
	body := data[container.HeaderSize:]

	switch v {
	case container.VariantQ:
		s := &qcodec.DecState{
			Bytes: body, Pixels: pixels, Px: pixel.Start,
			PixelCnt: n, BPresent: len(body), PLimit: len(pixels),
		}
		switch {
		case desc.Channels == 4 && outChannels == 4:
			qcodec.Decode4to4(s)
		case desc.Channels == 4:
			qcodec.Decode4to3(s)
		case outChannels == 4:
			qcodec.Decode3to4(s)
		default:
			qcodec.Decode3to3(s)
		}
		if s.PixelCurr != n {
			return nil, Descriptor{}, 0, newError("DecodeBuffer", TruncatedStream,
				fmt.Errorf("decoded %d of %d pixels", s.PixelCurr, n))
		}
	case container.VariantR:
		s := &rcodec.DecState{
			Bytes: body, Pixels: pixels, Px: pixel.Start,
			PixelCnt: n, BPresent: len(body), PLimit: len(pixels),
		}
		switch {
		case desc.Channels == 4 && outChannels == 4:
			rcodec.Decode4to4(s)
		case desc.Channels == 4:
			rcodec.Decode4to3(s)
		case outChannels == 4:
			rcodec.Decode3to4(s)
		default:
			rcodec.Decode3to3(s)
		}
		if s.PixelCurr != n {
			return nil, Descriptor{}, 0, newError("DecodeBuffer", TruncatedStream,
				fmt.Errorf("decoded %d of %d pixels", s.PixelCurr, n))
		}
	}

	return pixels, desc, v, nil
}
