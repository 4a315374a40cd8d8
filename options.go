package roiq

import (
	"fmt"

	"github.com/deepteams/roiq/internal/container"
	"github.com/deepteams/roiq/internal/dsp"
	"github.com/deepteams/roiq/internal/rcodec"
)

// Variant selects which on-disk format Encode produces. It re-exports
// internal/container's Variant so callers never need that import path.
type Variant = container.Variant

const (
	VariantQ = container.VariantQ
	VariantR = container.VariantR
)

// Path selects the encoder implementation strategy: pure scalar, the
// lane-batched vector path, or (R-variant only) the mega-LUT
// accelerator. It re-exports internal/dsp's Path.
type Path = dsp.Path

const (
	PathScalar  = dsp.PathScalar
	PathVector  = dsp.PathVector
	PathMegaLUT = dsp.PathMegaLUT
)

// Options configures Encode and NewEncoder. The zero value encodes as
// VariantQ on the scalar path, the baseline "qoif" format with no flags
// set; callers wanting the wider R opcode alphabet, the vector path, or
// the mega-LUT accelerator must opt in explicitly.
type Options struct {
	// Variant picks "qoif" (VariantQ) or "roif" (VariantR).
	Variant Variant

	// Colorspace is written verbatim into the header by Encode
	// (EncodeBuffer and NewEncoder take it from their Descriptor
	// instead); 0/1 are the only values a VariantQ descriptor accepts,
	// VariantR also accepts 2/3.
	// Bit 1 additionally tells a VariantR encoder to skip run-length
	// detection (DisableRLE does this for the caller automatically).
	Colorspace uint8

	// DisableRLE skips run-length detection entirely. Only meaningful
	// for VariantR; VariantQ always runs its RLE pass because its RUN
	// opcode is also how repeated pixels avoid needless index churn.
	DisableRLE bool

	// Path selects the encoder implementation. PathMegaLUT requires
	// MegaLUT to be set and Variant to be VariantR; EncodeBuffer and
	// NewEncoder reject it with an UnknownOption error otherwise.
	// PathVector falls back to PathScalar when dsp.ResolvePath finds no
	// vector support on the running CPU.
	Path Path

	// MegaLUT is the optional accelerator table used when Path is
	// PathMegaLUT. Build one with rcodec.NewMegaLUT or load one saved
	// earlier with rcodec.LoadMegaLUT.
	MegaLUT *rcodec.MegaLUT
}

func (o Options) resolvePath() Path {
	return dsp.ResolvePath(o.Path, o.MegaLUT != nil && o.Variant == VariantR)
}

// validate rejects Path requests ResolvePath would otherwise downgrade
// silently. A CPU lacking vector support falling back from PathVector to
// PathScalar is a capability negotiation, not a mistake, so ResolvePath
// keeps doing that on its own; asking for PathMegaLUT without the one
// thing that can ever serve it (a VariantR table the caller built) is a
// caller error and must be reported as one instead of quietly encoding
// with a different path than requested.
func (o Options) validate() error {
	if o.Path == PathMegaLUT && (o.Variant != VariantR || o.MegaLUT == nil) {
		return fmt.Errorf("PathMegaLUT requires VariantR and a non-nil MegaLUT")
	}
	return nil
}
