package roiq

import (
	"errors"
	"fmt"
	"io"

	"github.com/deepteams/roiq/internal/container"
	"github.com/deepteams/roiq/internal/pixel"
	"github.com/deepteams/roiq/internal/pool"
	"github.com/deepteams/roiq/internal/qcodec"
	"github.com/deepteams/roiq/internal/rcodec"
)

// chunkPixels sizes the pooled workspace buffers of Encoder and Decoder
// (chunkPixels*maxOpcodeBytesPerPixel bytes each). Encoder.Write encodes
// all the pixels it is given in one pass, growing its buffer when they
// need more than one chunk's worth; it does not split them into
// chunkPixels-sized pieces.
const chunkPixels = 131072 / 4

// Encoder streams pixel rows into w as a complete roiq file: the header
// is written on construction, each Write call encodes exactly the pixel
// bytes it's given (which must be a multiple of desc.Channels), and
// Close flushes any pending run and appends the terminator.
type Encoder struct {
	w    io.Writer
	desc Descriptor
	opts Options

	prev  pixel.Pixel
	run   uint32
	qidx  qcodec.Index
	chunk []byte

	closed bool
}

// NewEncoder validates desc/opts and writes the 14-byte header to w.
func NewEncoder(w io.Writer, desc Descriptor, opts Options) (*Encoder, error) {
	if err := desc.Validate(opts.Variant); err != nil {
		return nil, newError("NewEncoder", InvalidDescriptor, err)
	}
	if err := opts.validate(); err != nil {
		return nil, newError("NewEncoder", UnknownOption, err)
	}
	hdr := make([]byte, container.HeaderSize)
	p := 0
	container.WriteHeader(hdr, &p, opts.Variant, desc)
	if _, err := w.Write(hdr); err != nil {
		return nil, newError("NewEncoder", ShortWrite, err)
	}
	return &Encoder{
		w: w, desc: desc, opts: opts,
		prev:  pixel.Start,
		chunk: pool.Get(chunkPixels * maxOpcodeBytesPerPixel),
	}, nil
}

// Write encodes len(p)/desc.Channels pixels from p and writes the
// resulting opcodes to the underlying io.Writer. p's length must be a
// multiple of the descriptor's channel count.
func (e *Encoder) Write(p []byte) (int, error) {
	channels := int(e.desc.Channels)
	if len(p)%channels != 0 {
		return 0, newError("Encoder.Write", InvalidDescriptor,
			fmt.Errorf("%d bytes is not a multiple of %d channels", len(p), channels))
	}
	n := uint32(len(p) / channels)
	if int(n)*maxOpcodeBytesPerPixel > len(e.chunk) {
		pool.Put(e.chunk)
		e.chunk = pool.Get(int(n) * maxOpcodeBytesPerPixel)
	}

	bp := 0
	switch e.opts.Variant {
	case container.VariantQ:
		if channels == 4 {
			qcodec.EncodeChunk4(p, e.chunk, &bp, n, &e.prev, &e.qidx, &e.run)
		} else {
			qcodec.EncodeChunk3(p, e.chunk, &bp, n, &e.prev, &e.qidx, &e.run)
		}
	case container.VariantR:
		noRLE := e.opts.DisableRLE || e.desc.RLEDisabled()
		path := e.opts.resolvePath()
		switch {
		case channels == 4 && noRLE:
			rcodec.EncodeChunk4NoRLE(p, e.chunk, &bp, n, &e.prev)
		case channels == 4 && path == PathMegaLUT:
			rcodec.EncodeChunk4LUT(e.opts.MegaLUT, p, e.chunk, &bp, n, &e.prev, &e.run)
		case channels == 4:
			rcodec.EncodeChunk4(p, e.chunk, &bp, n, &e.prev, &e.run)
		case noRLE:
			rcodec.EncodeChunk3NoRLE(p, e.chunk, &bp, n, &e.prev)
		case path == PathMegaLUT:
			rcodec.EncodeChunk3LUT(e.opts.MegaLUT, p, e.chunk, &bp, n, &e.prev, &e.run)
		default:
			rcodec.EncodeChunk3(p, e.chunk, &bp, n, &e.prev, &e.run)
		}
	}

	if _, err := e.w.Write(e.chunk[:bp]); err != nil {
		return 0, newError("Encoder.Write", ShortWrite, err)
	}
	return len(p), nil
}

// Close flushes any run still pending and appends the 8-byte
// terminator. It must be called exactly once after the last Write.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	defer pool.Put(e.chunk)

	tail := make([]byte, 2+container.TerminatorSize)
	tp := 0
	switch e.opts.Variant {
	case container.VariantQ:
		qcodec.FlushRun(tail, &tp, &e.run)
	case container.VariantR:
		if !(e.opts.DisableRLE || e.desc.RLEDisabled()) {
			rcodec.FlushRun(tail, &tp, &e.run)
		}
	}
	copy(tail[tp:], container.Terminator[:])
	tp += container.TerminatorSize
	if _, err := e.w.Write(tail[:tp]); err != nil {
		return newError("Encoder.Close", ShortWrite, err)
	}
	return nil
}

// Decoder streams a roiq file out of r, decoding directly into
// caller-supplied destination buffers.
type Decoder struct {
	r           io.Reader
	variant     Variant
	desc        Descriptor
	outChannels int

	buf      []byte
	bPresent int
	bRead    int // bytes already consumed by decode out of buf[:bPresent]

	px        pixel.Pixel
	qidx      qcodec.Index
	run       uint32
	pixelCurr uint32

	done bool
}

// NewDecoder reads and parses the 14-byte header from r. requestedChannels
// picks Read's output width the same way DecodeBuffer's parameter does: 0
// keeps the descriptor's own channel count, 3 or 4 forces that width.
func NewDecoder(r io.Reader, requestedChannels int) (*Decoder, error) {
	hdr := make([]byte, container.HeaderSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, newError("NewDecoder", ShortRead, err)
	}
	v, desc, err := container.ParseHeader(hdr)
	if err != nil {
		if errors.Is(err, container.ErrBadMagic) {
			return nil, newError("NewDecoder", BadMagic, err)
		}
		return nil, newError("NewDecoder", InvalidDescriptor, err)
	}
	outChannels, err := resolveChannels(requestedChannels, desc.Channels)
	if err != nil {
		return nil, newError("NewDecoder", UnknownOption, err)
	}
	return &Decoder{
		r: r, variant: v, desc: desc, outChannels: outChannels,
		buf: pool.Get(chunkPixels * maxOpcodeBytesPerPixel),
		px:  pixel.Start,
	}, nil
}

// Descriptor returns the image descriptor parsed from the header.
func (d *Decoder) Descriptor() Descriptor { return d.desc }

// Variant returns which on-disk format the stream uses.
func (d *Decoder) Variant() Variant { return d.variant }

// refill compacts any unread tail of d.buf to the front and reads more
// bytes from the underlying reader.
func (d *Decoder) refill() error {
	tail := copy(d.buf, d.buf[d.bRead:d.bPresent])
	d.bPresent = tail
	d.bRead = 0
	n, err := d.r.Read(d.buf[d.bPresent:])
	d.bPresent += n
	if n == 0 && err != nil {
		return err
	}
	return nil
}

// Read decodes into dst (requestedChannels bytes per pixel, per the
// count NewDecoder resolved) until dst is full, the image is exhausted,
// or the input runs out. It returns the number of bytes decoded and
// io.EOF once the whole image has been produced.
func (d *Decoder) Read(dst []byte) (int, error) {
	if d.done {
		return 0, io.EOF
	}
	channels := d.outChannels
	n := uint32(d.desc.Pixels())
	pxCapacity := len(dst) / channels
	minLookahead := maxOpcodeBytesPerPixelForVariant(d.variant) + 1

	total := 0
	for total < pxCapacity && d.pixelCurr < n {
		if d.bPresent-d.bRead < minLookahead {
			err := d.refill()
			if err != nil && err != io.EOF {
				return total * channels, newError("Decoder.Read", ShortRead, err)
			}
			if d.bPresent-d.bRead < minLookahead && (err == io.EOF || d.bPresent == d.bRead) {
				return total * channels, newError("Decoder.Read", TruncatedStream,
					fmt.Errorf("decoded %d of %d pixels", d.pixelCurr, n))
			}
		}

		pixelCurrBefore := d.pixelCurr
		outOff := total * channels
		switch d.variant {
		case container.VariantQ:
			qs := &qcodec.DecState{
				Bytes: d.buf, Pixels: dst[outOff:], Px: d.px, Idx: d.qidx,
				B: d.bRead, BPresent: d.bPresent,
				PixelCnt: n, PixelCurr: d.pixelCurr,
				PLimit: len(dst[outOff:]), Run: d.run,
			}
			switch {
			case d.desc.Channels == 4 && channels == 4:
				qcodec.Decode4to4(qs)
			case d.desc.Channels == 4:
				qcodec.Decode4to3(qs)
			case channels == 4:
				qcodec.Decode3to4(qs)
			default:
				qcodec.Decode3to3(qs)
			}
			d.px, d.qidx, d.run, d.bRead = qs.Px, qs.Idx, qs.Run, qs.B
			d.pixelCurr = qs.PixelCurr
		case container.VariantR:
			rs := &rcodec.DecState{
				Bytes: d.buf, Pixels: dst[outOff:], Px: d.px,
				B: d.bRead, BPresent: d.bPresent,
				PixelCnt: n, PixelCurr: d.pixelCurr,
				PLimit: len(dst[outOff:]), Run: d.run,
			}
			switch {
			case d.desc.Channels == 4 && channels == 4:
				rcodec.Decode4to4(rs)
			case d.desc.Channels == 4:
				rcodec.Decode4to3(rs)
			case channels == 4:
				rcodec.Decode3to4(rs)
			default:
				rcodec.Decode3to3(rs)
			}
			d.px, d.run, d.bRead = rs.Px, rs.Run, rs.B
			d.pixelCurr = rs.PixelCurr
		}
		total += int(d.pixelCurr - pixelCurrBefore)

		if d.pixelCurr == pixelCurrBefore {
			// Neither more output room nor a full opcode was available;
			// avoid spinning and let the caller retry after a refill.
			break
		}
	}

	if d.pixelCurr == n {
		d.done = true
		pool.Put(d.buf)
		return total * channels, io.EOF
	}
	return total * channels, nil
}

func maxOpcodeBytesPerPixelForVariant(v Variant) int {
	if v == container.VariantQ {
		return 5
	}
	return 6
}
