// Package pixel defines the 32-bit RGBA pixel shared by the Q and R codecs.
package pixel

// Pixel is a 32-bit pixel addressable as four 8-bit channels.
// The zero value is NOT the initial "previous pixel" — use Start for that.
type Pixel struct {
	R, G, B, A uint8
}

// Start is the initial previous-pixel value both encoder and decoder seed
// their state with before the first pixel of an image.
var Start = Pixel{R: 0, G: 0, B: 0, A: 255}

// Word packs the pixel into a single uint32 (R in the low byte), letting
// pixel equality be tested as a single integer compare the way the
// reference C union does with its .v member.
func (p Pixel) Word() uint32 {
	return uint32(p.R) | uint32(p.G)<<8 | uint32(p.B)<<16 | uint32(p.A)<<24
}

// Equal reports whether two pixels have identical channels.
func (p Pixel) Equal(o Pixel) bool {
	return p.Word() == o.Word()
}

// Hash returns the Q-variant running-index slot for p: (r*3+g*5+b*7+a*11) mod 64.
func (p Pixel) Hash() uint8 {
	return (p.R*3 + p.G*5 + p.B*7 + p.A*11) & 63
}
