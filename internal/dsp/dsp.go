// Package dsp decides which of the scalar, vector-path or mega-LUT codec
// routines the rest of the module calls. HasVector is set once in init()
// from what the running CPU supports, and ResolvePath turns a requested
// Path into one that can be served; call sites then switch on the
// resolved Path rather than testing feature flags themselves.
package dsp

import "golang.org/x/sys/cpu"

// Path names a codec execution strategy. The three variants form a
// closed set — scalar always works, Vector requires nothing beyond what
// HasVector reports, and MegaLUT additionally requires the accelerator
// table to have been built or loaded by the caller.
type Path uint8

const (
	PathScalar Path = iota
	PathVector
	PathMegaLUT
)

func (p Path) String() string {
	switch p {
	case PathVector:
		return "vector"
	case PathMegaLUT:
		return "mega-lut"
	default:
		return "scalar"
	}
}

// HasVector reports whether the running CPU has the feature set this
// module's lane-batched "vector path" encoders were written against
// (SSE2-class on amd64, ASIMD-class on arm64 — both are baseline on
// their respective architectures today, so this is almost always true;
// it exists so ResolvePath can downgrade PathVector to PathScalar on
// anything unusual).
var HasVector bool

func init() {
	HasVector = cpu.X86.HasSSE2 || cpu.ARM64.HasASIMD
}

// ResolvePath downgrades a requested Path to one the running CPU (and,
// for MegaLUT, the caller) can actually serve, rather than failing the
// whole encode over a missing accelerator.
func ResolvePath(want Path, megaLUTReady bool) Path {
	switch want {
	case PathMegaLUT:
		if megaLUTReady {
			return PathMegaLUT
		}
		fallthrough
	case PathVector:
		if HasVector {
			return PathVector
		}
		fallthrough
	default:
		return PathScalar
	}
}
