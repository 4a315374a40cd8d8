// Command roiconv converts PPM or PNG images to the Q ("qoif")/R
// ("roif") codec formats implemented by package roiq, and codec files
// back to PPM (PNG is accepted as input only).
//
// Usage:
//
//	roiconv [options] infile outfile
//
// Direction is inferred from the input and output file extensions
// (.ppm, .png, .qoi, .roi); exactly one side must be a codec file.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/deepteams/roiq"
	"github.com/deepteams/roiq/internal/ppm"
	"github.com/deepteams/roiq/internal/rcodec"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "roiconv: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("roiconv", flag.ContinueOnError)
	scalar := fs.Bool("scalar", false, "force the scalar encode path")
	sse := fs.Bool("sse", false, "request the vector encode path")
	rle := fs.Bool("rle", true, "enable run-length opcodes (R variant only)")
	mlut := fs.Bool("mlut", false, "encode through the mega-LUT (R variant only)")
	mlutPath := fs.String("mlut-path", "", "load a precomputed mega-LUT from FILE")
	mlutGen := fs.String("mlut-gen", "", "generate a mega-LUT and write it to FILE, then exit")
	bench := fs.Bool("bench", false, "report encode/decode wall time and compression ratio")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: roiconv [options] infile outfile")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *mlutGen != "" {
		return genMegaLUT(*mlutGen)
	}

	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("expected exactly 2 positional arguments, got %d", fs.NArg())
	}
	inPath, outPath := fs.Arg(0), fs.Arg(1)

	opts := roiq.Options{Variant: roiq.VariantR, DisableRLE: !*rle}
	if *scalar {
		opts.Path = roiq.PathScalar
	} else if *sse {
		opts.Path = roiq.PathVector
	}
	if *mlut || *mlutPath != "" {
		path := *mlutPath
		lut, err := loadOrBuildMegaLUT(path)
		if err != nil {
			return err
		}
		opts.MegaLUT = lut
	}

	fromCodec := isCodecExt(inPath)
	toCodec := isCodecExt(outPath)
	if fromCodec == toCodec {
		return fmt.Errorf("exactly one of %q, %q must be a .qoi/.roi file", inPath, outPath)
	}

	var start time.Time
	if *bench {
		start = time.Now()
	}

	var inBytes, outBytes int
	var err error
	if toCodec {
		opts.Variant = extVariant(outPath)
		if opts.MegaLUT != nil && opts.Variant == roiq.VariantR {
			opts.Path = roiq.PathMegaLUT
		}
		inBytes, outBytes, err = convertToCodec(inPath, outPath, opts)
	} else {
		inBytes, outBytes, err = convertFromCodec(inPath, outPath)
	}
	if err != nil {
		return err
	}
	if *bench {
		reportBench(start, inBytes, outBytes)
	}
	return nil
}

func isCodecExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".qoi", ".roi":
		return true
	}
	return false
}

func extVariant(path string) roiq.Variant {
	if strings.ToLower(filepath.Ext(path)) == ".qoi" {
		return roiq.VariantQ
	}
	return roiq.VariantR
}

// convertToCodec reads a PPM or PNG source and writes a .qoi/.roi file,
// returning the source pixel byte count and the encoded byte count.
func convertToCodec(inPath, outPath string, opts roiq.Options) (decN, encN int, err error) {
	var desc roiq.Descriptor
	var pixels []byte

	switch strings.ToLower(filepath.Ext(inPath)) {
	case ".ppm":
		f, err := os.Open(inPath)
		if err != nil {
			return 0, 0, err
		}
		defer f.Close()
		img, err := ppm.Decode(f)
		if err != nil {
			return 0, 0, fmt.Errorf("reading %s: %w", inPath, err)
		}
		pixels = img.Pix
		desc = roiq.Descriptor{Width: uint32(img.Width), Height: uint32(img.Height), Channels: 3}
	default:
		f, err := os.Open(inPath)
		if err != nil {
			return 0, 0, err
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return 0, 0, fmt.Errorf("reading %s: %w", inPath, err)
		}
		m := imageToRGBA(img)
		pixels = m.Pix
		b := m.Bounds()
		desc = roiq.Descriptor{Width: uint32(b.Dx()), Height: uint32(b.Dy()), Channels: 4}
	}

	enc, err := roiq.EncodeBuffer(pixels, desc, opts)
	if err != nil {
		return 0, 0, fmt.Errorf("encoding: %w", err)
	}
	if err := os.WriteFile(outPath, enc, 0o644); err != nil {
		return 0, 0, fmt.Errorf("writing %s: %w", outPath, err)
	}
	return len(pixels), len(enc), nil
}

// convertFromCodec reads a .qoi/.roi file and writes a PPM (RGB only;
// callers wanting alpha preserved should keep the .qoi/.roi original).
// Dropping alpha is requested straight from the core decoder via
// requested_channels=3 rather than stripped by hand afterwards.
func convertFromCodec(inPath, outPath string) (encN, decN int, err error) {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return 0, 0, err
	}
	rgb, desc, _, err := roiq.DecodeBuffer(data, 3)
	if err != nil {
		return 0, 0, fmt.Errorf("decoding %s: %w", inPath, err)
	}

	switch strings.ToLower(filepath.Ext(outPath)) {
	case ".ppm":
		f, err := os.Create(outPath)
		if err != nil {
			return 0, 0, err
		}
		defer f.Close()
		if err := ppm.Encode(f, int(desc.Width), int(desc.Height), rgb); err != nil {
			return 0, 0, fmt.Errorf("writing %s: %w", outPath, err)
		}
	default:
		return 0, 0, fmt.Errorf("unsupported output extension %q", filepath.Ext(outPath))
	}
	return len(data), len(rgb), nil
}

func imageToRGBA(img image.Image) *rgbaBuf {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := &rgbaBuf{Pix: make([]byte, w*h*4), rect: image.Rect(0, 0, w, h)}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			out.Pix[i+0] = byte(r >> 8)
			out.Pix[i+1] = byte(g >> 8)
			out.Pix[i+2] = byte(bl >> 8)
			out.Pix[i+3] = byte(a >> 8)
			i += 4
		}
	}
	return out
}

type rgbaBuf struct {
	Pix  []byte
	rect image.Rectangle
}

func (m *rgbaBuf) Bounds() image.Rectangle { return m.rect }

func loadOrBuildMegaLUT(path string) (*rcodec.MegaLUT, error) {
	if path != "" {
		lut, err := rcodec.LoadMegaLUT(path)
		if err != nil {
			return nil, fmt.Errorf("loading mega-LUT %s: %w", path, err)
		}
		return lut, nil
	}
	return rcodec.NewMegaLUT(), nil
}

func genMegaLUT(path string) error {
	lut := rcodec.NewMegaLUT()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := rcodec.SaveMegaLUT(f, lut); err != nil {
		return fmt.Errorf("writing mega-LUT %s: %w", path, err)
	}
	return nil
}

func reportBench(start time.Time, inBytes, outBytes int) {
	elapsed := time.Since(start)
	ratio := float64(outBytes) / float64(inBytes)
	if inBytes == 0 {
		ratio = 0
	}
	fmt.Fprintf(os.Stderr, "%d -> %d bytes (ratio %.3f) in %s\n", inBytes, outBytes, ratio, elapsed)
}
