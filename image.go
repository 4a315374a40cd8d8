package roiq

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/deepteams/roiq/internal/container"
)

func init() {
	image.RegisterFormat("roiq", "qoif", Decode, DecodeConfig)
	image.RegisterFormat("roiq", "roif", Decode, DecodeConfig)
}

// Image is the image.Image this package's Decode returns: an
// unpremultiplied RGB or RGBA buffer, row-major, matching the pixel
// layout the codec operates on directly (no color-model conversion on
// the decode path, the same way the parent format's VP8L path hands
// back *image.NRGBA without a detour through a generic color.Color).
type Image struct {
	Pix      []byte
	Stride   int
	Rect     image.Rectangle
	Channels int
}

// ColorModel reports NRGBA regardless of Channels; 3-channel images
// report a fully opaque alpha through At.
func (m *Image) ColorModel() color.Model { return color.NRGBAModel }

// Bounds returns the image's pixel rectangle.
func (m *Image) Bounds() image.Rectangle { return m.Rect }

// At returns the color of the pixel at (x, y).
func (m *Image) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(m.Rect)) {
		return color.NRGBA{}
	}
	i := (y-m.Rect.Min.Y)*m.Stride + (x-m.Rect.Min.X)*m.Channels
	c := color.NRGBA{R: m.Pix[i], G: m.Pix[i+1], B: m.Pix[i+2], A: 255}
	if m.Channels == 4 {
		c.A = m.Pix[i+3]
	}
	return c
}

// Set overwrites the pixel at (x, y), used by encoders built on top of
// the standard library's draw package.
func (m *Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(m.Rect)) {
		return
	}
	nrgba := color.NRGBAModel.Convert(c).(color.NRGBA)
	i := (y-m.Rect.Min.Y)*m.Stride + (x-m.Rect.Min.X)*m.Channels
	m.Pix[i], m.Pix[i+1], m.Pix[i+2] = nrgba.R, nrgba.G, nrgba.B
	if m.Channels == 4 {
		m.Pix[i+3] = nrgba.A
	}
}

// NewImage allocates an Image of the given bounds and channel count (3
// or 4).
func NewImage(r image.Rectangle, channels int) *Image {
	w, h := r.Dx(), r.Dy()
	return &Image{
		Pix:      make([]byte, w*h*channels),
		Stride:   w * channels,
		Rect:     r,
		Channels: channels,
	}
}

// readAll reads all of r, using a single exact-sized allocation when r
// reports its own length (e.g. *bytes.Reader) instead of io.ReadAll's
// repeated doubling.
func readAll(r io.Reader) ([]byte, error) {
	if lr, ok := r.(interface{ Len() int }); ok {
		if n := lr.Len(); n > 0 {
			data := make([]byte, n)
			_, err := io.ReadFull(r, data)
			return data, err
		}
	}
	return io.ReadAll(r)
}

// Decode reads a complete roiq file (either variant) from r and returns
// it as an *Image, keeping the descriptor's own channel count. It is
// registered with image.RegisterFormat, whose decoder type is fixed to
// func(io.Reader) (image.Image, error); callers wanting explicit
// channel expansion or reduction should call DecodeChannels instead.
func Decode(r io.Reader) (image.Image, error) {
	return DecodeChannels(r, 0)
}

// DecodeChannels is Decode with requested_channels control: 0 keeps the
// descriptor's own channel count, 3 drops alpha (or synthesizes none),
// 4 always produces alpha, filling it with 255 for a 3-channel source.
func DecodeChannels(r io.Reader, requestedChannels int) (image.Image, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, newError("DecodeChannels", ShortRead, err)
	}
	pixels, desc, _, err := DecodeBuffer(data, requestedChannels)
	if err != nil {
		return nil, err
	}
	channels, _ := resolveChannels(requestedChannels, desc.Channels)
	return &Image{
		Pix:      pixels,
		Stride:   int(desc.Width) * channels,
		Rect:     image.Rect(0, 0, int(desc.Width), int(desc.Height)),
		Channels: channels,
	}, nil
}

// DecodeConfig returns an image's color model and dimensions without
// decoding the pixel data, by parsing just the 14-byte header.
func DecodeConfig(r io.Reader) (image.Config, error) {
	hdr := make([]byte, container.HeaderSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return image.Config{}, newError("DecodeConfig", ShortRead, err)
	}
	_, desc, err := container.ParseHeader(hdr)
	if err != nil {
		if errors.Is(err, container.ErrBadMagic) {
			return image.Config{}, newError("DecodeConfig", BadMagic, err)
		}
		return image.Config{}, newError("DecodeConfig", InvalidDescriptor, err)
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      int(desc.Width),
		Height:     int(desc.Height),
	}, nil
}

// Encode writes img to w as a complete roiq file. Images that are not
// already *Image are converted via image/draw semantics (copying
// through At), which costs an extra pass but lets any image.Image be
// encoded, not just ones this package produced.
func Encode(w io.Writer, img image.Image, opts Options) error {
	m, ok := img.(*Image)
	if !ok {
		m = imageToImage(img, opts)
	}
	desc := Descriptor{
		Width:      uint32(m.Rect.Dx()),
		Height:     uint32(m.Rect.Dy()),
		Channels:   uint8(m.Channels),
		Colorspace: opts.Colorspace,
	}
	enc, err := EncodeBuffer(m.Pix, desc, opts)
	if err != nil {
		return err
	}
	n, err := w.Write(enc)
	if err != nil {
		return newError("Encode", ShortWrite, err)
	}
	if n != len(enc) {
		return newError("Encode", ShortWrite, fmt.Errorf("wrote %d of %d bytes", n, len(enc)))
	}
	return nil
}

// imageToImage copies an arbitrary image.Image into this package's
// native pixel layout, choosing 4 channels whenever the source's color
// model isn't a known-opaque one.
func imageToImage(img image.Image, opts Options) *Image {
	channels := 4
	switch img.ColorModel() {
	case color.YCbCrModel, color.GrayModel, color.Gray16Model:
		channels = 3
	}
	b := img.Bounds()
	out := NewImage(image.Rect(0, 0, b.Dx(), b.Dy()), channels)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			out.Pix[i+0] = byte(r >> 8)
			out.Pix[i+1] = byte(g >> 8)
			out.Pix[i+2] = byte(bl >> 8)
			if channels == 4 {
				out.Pix[i+3] = byte(a >> 8)
			}
			i += channels
		}
	}
	return out
}
