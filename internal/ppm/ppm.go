// Package ppm implements just enough of the Netpbm "P6" binary pixmap
// format to feed the roiconv command line tool: a one-line ASCII header
// (width, height, maxval) followed by raw big-endian RGB triples. There
// is no writer-side support for comments or a maxval other than 255,
// matching the single header line the reference converter ever emits.
package ppm

import (
	"bufio"
	"fmt"
	"io"
)

// Image is a decoded P6 pixmap: Width*Height RGB triples in Pix.
type Image struct {
	Width, Height int
	Pix           []byte // Width*Height*3 bytes, row-major RGB
}

func isSpace(b byte) bool {
	return b == ' ' || (b >= 0x09 && b <= 0x0d)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// readByte reads a single byte, wrapping any error as a short read.
func readByte(r *bufio.Reader) (byte, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("ppm: short header: %w", err)
	}
	return b, nil
}

// skipComment consumes bytes up to and including the next newline.
func skipComment(r *bufio.Reader, t *byte) error {
	for *t != '\n' {
		b, err := readByte(r)
		if err != nil {
			return err
		}
		*t = b
	}
	return nil
}

// readUint reads whitespace, then a run of digits into an unsigned int,
// leaving t holding the first non-digit byte read, mirroring the
// original decoder's single-pass header scanner.
func readUint(r *bufio.Reader, t *byte) (uint32, error) {
	if !isSpace(*t) {
		return 0, fmt.Errorf("ppm: malformed header")
	}
	for isSpace(*t) {
		b, err := readByte(r)
		if err != nil {
			return 0, err
		}
		*t = b
	}
	if !isDigit(*t) {
		return 0, fmt.Errorf("ppm: malformed header")
	}
	var v uint32
	for isDigit(*t) {
		v = v*10 + uint32(*t-'0')
		b, err := readByte(r)
		if err != nil {
			return 0, err
		}
		*t = b
	}
	return v, nil
}

// Decode reads a P6 pixmap from r. It accepts a single "#"-introduced
// comment immediately after maxval, the one form the reference encoder
// itself can be asked to emit.
func Decode(r io.Reader) (*Image, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	magic := make([]byte, 2)
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, fmt.Errorf("ppm: short header: %w", err)
	}
	if magic[0] != 'P' || magic[1] != '6' {
		return nil, fmt.Errorf("ppm: not a P6 pixmap")
	}

	t, err := readByte(br)
	if err != nil {
		return nil, err
	}
	width, err := readUint(br, &t)
	if err != nil {
		return nil, err
	}
	height, err := readUint(br, &t)
	if err != nil {
		return nil, err
	}
	maxval, err := readUint(br, &t)
	if err != nil {
		return nil, err
	}
	if t == '#' {
		if err := skipComment(br, &t); err != nil {
			return nil, err
		}
	}
	if !isSpace(t) {
		return nil, fmt.Errorf("ppm: malformed header")
	}
	if maxval > 255 {
		return nil, fmt.Errorf("ppm: maxval %d exceeds 255", maxval)
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("ppm: zero width or height")
	}

	img := &Image{Width: int(width), Height: int(height), Pix: make([]byte, uint64(width)*uint64(height)*3)}
	if _, err := io.ReadFull(br, img.Pix); err != nil {
		return nil, fmt.Errorf("ppm: truncated pixel data: %w", err)
	}
	return img, nil
}

// Encode writes pix (width*height*3 RGB bytes) to w as a P6 pixmap with
// a single "P6 %d %d 255\n" header line.
func Encode(w io.Writer, width, height int, pix []byte) error {
	if len(pix) != width*height*3 {
		return fmt.Errorf("ppm: pixel buffer length %d does not match %dx%d RGB", len(pix), width, height)
	}
	bw := bufio.NewWriterSize(w, 64*1024)
	if _, err := fmt.Fprintf(bw, "P6 %d %d 255\n", width, height); err != nil {
		return fmt.Errorf("ppm: writing header: %w", err)
	}
	if _, err := bw.Write(pix); err != nil {
		return fmt.Errorf("ppm: writing pixels: %w", err)
	}
	return bw.Flush()
}
