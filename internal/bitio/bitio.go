// Package bitio provides fixed-width little-endian pokes and peeks against
// a mutable byte buffer with an advancing cursor.
//
// Unlike a general-purpose bit-packed reader/writer, the roi/qoi opcode
// streams never split a byte across two fields: every opcode is a whole
// number of bytes wide (1, 2, 3 or 4), with the tag occupying the low bits
// of the first byte. Little-endian pokes are the natural layout for that —
// they let the tag and the payload be masked and shifted independently of
// how many bytes follow.
package bitio

// PokeU8 writes a single byte at *p and advances the cursor by 1.
func PokeU8(b []byte, p *int, x uint8) {
	b[*p] = x
	*p++
}

// PokeU16LE writes x as two little-endian bytes at *p and advances by 2.
func PokeU16LE(b []byte, p *int, x uint16) {
	b[*p] = byte(x)
	b[*p+1] = byte(x >> 8)
	*p += 2
}

// PokeU24LE writes the low 24 bits of x as three little-endian bytes at
// *p and advances by 3.
func PokeU24LE(b []byte, p *int, x uint32) {
	b[*p] = byte(x)
	b[*p+1] = byte(x >> 8)
	b[*p+2] = byte(x >> 16)
	*p += 3
}

// PokeU32LE writes x as four little-endian bytes at *p and advances by 4.
func PokeU32LE(b []byte, p *int, x uint32) {
	b[*p] = byte(x)
	b[*p+1] = byte(x >> 8)
	b[*p+2] = byte(x >> 16)
	b[*p+3] = byte(x >> 24)
	*p += 4
}

// PeekU32LE reads a 4-byte little-endian word at b[0:4] without advancing
// any cursor.
func PeekU32LE(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// PokeU32BE writes x as four big-endian bytes at *p and advances by 4.
// Used only by the 14-byte file header (width/height fields).
func PokeU32BE(b []byte, p *int, x uint32) {
	b[*p] = byte(x >> 24)
	b[*p+1] = byte(x >> 16)
	b[*p+2] = byte(x >> 8)
	b[*p+3] = byte(x)
	*p += 4
}

// PeekU32BE reads a 4-byte big-endian word at *p and advances by 4.
func PeekU32BE(b []byte, p *int) uint32 {
	x := uint32(b[*p])<<24 | uint32(b[*p+1])<<16 | uint32(b[*p+2])<<8 | uint32(b[*p+3])
	*p += 4
	return x
}
