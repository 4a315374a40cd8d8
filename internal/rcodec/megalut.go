package rcodec

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/deepteams/roiq/internal/pixel"
)

// MegaLUTEntries is the size of the mega-LUT accelerator: one entry per
// possible (vr, vg, vb) delta triple, 3 bytes of index giving 2^24 rows.
const MegaLUTEntries = 1 << 24

// megaLUTEntrySize is the on-disk and in-memory width of one row: one
// length byte (1..4) followed by up to 4 packed opcode bytes, unused
// trailing bytes left zero.
const megaLUTEntrySize = 5

// MegaLUT is the optional ~80MiB accelerator table mapping every
// possible green-centered delta triple directly to its pre-packed
// LUMA232/LUMA464/LUMA777/RGB opcode bytes, trading memory for the
// branchy range classification in encodeRGB.
type MegaLUT struct {
	rows []byte // MegaLUTEntries * megaLUTEntrySize
}

// megaLUTIndex packs the three signed deltas into the table's row index.
// vg is biased by +128 into the high byte, so near-zero vg values fall
// in the middle of the table; vr and vb fill the middle and low bytes as
// their raw two's-complement values.
func megaLUTIndex(vr, vg, vb int8) uint32 {
	return uint32(uint8(vg)+128)<<16 | uint32(uint8(vr))<<8 | uint32(uint8(vb))
}

// NewMegaLUT builds the accelerator table by running encodeRGB over
// every possible delta triple once. This is the "generate on demand"
// path; callers that already have a table on disk should use
// LoadMegaLUT instead.
func NewMegaLUT() *MegaLUT {
	m := &MegaLUT{rows: make([]byte, MegaLUTEntries*megaLUTEntrySize)}
	var scratch [4]byte
	for vg := -128; vg < 128; vg++ {
		for vr := -128; vr < 128; vr++ {
			for vb := -128; vb < 128; vb++ {
				p := 0
				encodeRGBDelta(scratch[:], &p, int8(vr), int8(vg), int8(vb))
				idx := megaLUTIndex(int8(vr), int8(vg), int8(vb)) * megaLUTEntrySize
				m.rows[idx] = byte(p)
				copy(m.rows[idx+1:idx+1+megaLUTEntrySize-1], scratch[:p])
			}
		}
	}
	return m
}

// encodeRGBDelta is encodeRGB's classification logic factored out to
// take raw deltas directly, so both the scalar encoder and the mega-LUT
// generator share one source of truth for opcode selection.
func encodeRGBDelta(bytes []byte, p *int, vr, vg, vb int8) {
	vgR := vr - vg
	vgB := vb - vg
	ar := abs8Biased(vgR)
	ag := abs8Biased(vg)
	ab := abs8Biased(vgB)
	arb := ar | ab
	switch {
	case arb < 2 && ag < 4:
		bytes[*p] = byte(opLuma232 | uint8(vgB+2)<<6 | uint8(vgR+2)<<4 | uint8(vg+4)<<1)
		*p++
	case arb < 8 && ag < 32:
		v := uint32(opLuma464) | uint32(uint8(vgB+8))<<12 | uint32(uint8(vgR+8))<<8 | uint32(uint8(vg+32))<<2
		poke16LE(bytes, p, v)
	case (arb | ag) < 64:
		v := uint32(opLuma777) | uint32(uint8(vgB+64))<<17 | uint32(uint8(vgR+64))<<10 | uint32(uint8(vg+64))<<3
		poke24LE(bytes, p, v)
	default:
		bytes[*p] = opRGB
		bytes[*p+1] = byte(vg)
		bytes[*p+2] = byte(vgR)
		bytes[*p+3] = byte(vgB)
		*p += 4
	}
}

// Lookup appends the pre-packed opcode for the delta (vr, vg, vb) and
// advances *p by the number of bytes written (matching encodeRGB's
// contract exactly).
func (m *MegaLUT) Lookup(bytes []byte, p *int, vr, vg, vb int8) {
	idx := megaLUTIndex(vr, vg, vb) * megaLUTEntrySize
	n := int(m.rows[idx])
	copy(bytes[*p:*p+n], m.rows[idx+1:idx+1+uint32(n)])
	*p += n
}

// encodeRGBLUT is encodeRGB with the branchy classification in
// encodeRGBDelta replaced by a single mega-LUT row copy.
func encodeRGBLUT(m *MegaLUT, bytes []byte, p *int, px, prev pixel.Pixel) {
	vr := int8(px.R - prev.R)
	vg := int8(px.G - prev.G)
	vb := int8(px.B - prev.B)
	m.Lookup(bytes, p, vr, vg, vb)
}

// SaveMegaLUT writes m to w as a raw row dump, for reuse across process
// runs without paying the generation cost again.
func SaveMegaLUT(w io.Writer, m *MegaLUT) error {
	bw := bufio.NewWriterSize(w, 1<<20)
	if _, err := bw.Write(m.rows); err != nil {
		return fmt.Errorf("roiq: writing mega-LUT: %w", err)
	}
	return bw.Flush()
}

// LoadMegaLUT reads a table previously written by SaveMegaLUT.
func LoadMegaLUT(path string) (*MegaLUT, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("roiq: opening mega-LUT: %w", err)
	}
	defer f.Close()
	m := &MegaLUT{rows: make([]byte, MegaLUTEntries*megaLUTEntrySize)}
	if _, err := io.ReadFull(bufio.NewReaderSize(f, 1<<20), m.rows); err != nil {
		return nil, fmt.Errorf("roiq: reading mega-LUT: %w", err)
	}
	return m, nil
}
