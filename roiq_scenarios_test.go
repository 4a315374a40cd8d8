package roiq

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/deepteams/roiq/internal/container"
)

// TestScenarioAllZeroRGBA covers spec scenario 1: a 16x1 all-zero RGBA
// image. The previous pixel starts at (0,0,0,255), so the first pixel
// differs only in alpha (RGBA opcode, alpha=0), its RGB deltas are all
// zero (LUMA232 bias byte), and the remaining 15 pixels repeat it as a
// single 15-pixel run (RUN payload 14).
func TestScenarioAllZeroRGBA(t *testing.T) {
	desc := Descriptor{Width: 16, Height: 1, Channels: 4, Colorspace: 0}
	pixels := make([]byte, 16*4)

	enc, err := EncodeBuffer(pixels, desc, Options{Variant: VariantR})
	if err != nil {
		t.Fatalf("EncodeBuffer: %v", err)
	}
	if len(enc) != 26 {
		t.Fatalf("len(enc) = %d, want 26", len(enc))
	}
	body := enc[container.HeaderSize : len(enc)-container.TerminatorSize]
	if !bytes.Equal(body, []byte{0xff, 0x00, 0xa8, 0x77}) {
		t.Fatalf("body = % x, want ff 00 a8 77", body)
	}

	got, _, _, err := DecodeBuffer(enc, 0)
	if err != nil {
		t.Fatalf("DecodeBuffer: %v", err)
	}
	if !bytes.Equal(got, pixels) {
		t.Fatalf("round trip mismatch")
	}
}

// TestScenarioSingleGrayPixel covers spec scenario 2: a single 1x1 RGB
// pixel of gray 128. Its delta from (0,0,0,255) falls outside every
// LUMA range, so it must encode as a 4-byte RGB opcode.
func TestScenarioSingleGrayPixel(t *testing.T) {
	desc := Descriptor{Width: 1, Height: 1, Channels: 3, Colorspace: 0}
	pixels := []byte{128, 128, 128}

	enc, err := EncodeBuffer(pixels, desc, Options{Variant: VariantR})
	if err != nil {
		t.Fatalf("EncodeBuffer: %v", err)
	}
	if len(enc) != 26 {
		t.Fatalf("len(enc) = %d, want 26", len(enc))
	}
	body := enc[container.HeaderSize : len(enc)-container.TerminatorSize]
	if !bytes.Equal(body, []byte{0xf7, 0x80, 0x00, 0x00}) {
		t.Fatalf("body = % x, want f7 80 00 00", body)
	}

	got, _, _, err := DecodeBuffer(enc, 0)
	if err != nil {
		t.Fatalf("DecodeBuffer: %v", err)
	}
	if !bytes.Equal(got, pixels) {
		t.Fatalf("round trip mismatch")
	}
}

// TestScenarioGradient32 covers spec scenario 3: a 32x1 RGB gradient
// row (i,i,i) for i=0..31. The first pixel (0,0,0) equals the
// (0,0,0,255) start, so it is emitted as a 1-pixel RUN; every later step
// has vg=+1 and zero cross terms, which always selects the same LUMA232
// byte.
func TestScenarioGradient32(t *testing.T) {
	desc := Descriptor{Width: 32, Height: 1, Channels: 3, Colorspace: 0}
	pixels := make([]byte, 32*3)
	for i := 0; i < 32; i++ {
		pixels[i*3+0] = byte(i)
		pixels[i*3+1] = byte(i)
		pixels[i*3+2] = byte(i)
	}

	enc, err := EncodeBuffer(pixels, desc, Options{Variant: VariantR})
	if err != nil {
		t.Fatalf("EncodeBuffer: %v", err)
	}
	if len(enc) != 54 {
		t.Fatalf("len(enc) = %d, want 54", len(enc))
	}
	body := enc[container.HeaderSize : len(enc)-container.TerminatorSize]
	if len(body) != 32 {
		t.Fatalf("body len = %d, want 32", len(body))
	}
	// The first pixel equals the (0,0,0,255) start, so it is a 1-pixel
	// RUN (payload 0, byte 0x07); every subsequent step has vg=+1 only.
	if body[0] != 0x07 {
		t.Fatalf("body[0] = %#x, want 0x07", body[0])
	}
	for i := 1; i < len(body); i++ {
		if body[i] != 0xaa {
			t.Fatalf("body[%d] = %#x, want 0xaa", i, body[i])
		}
	}

	got, _, _, err := DecodeBuffer(enc, 0)
	if err != nil {
		t.Fatalf("DecodeBuffer: %v", err)
	}
	if !bytes.Equal(got, pixels) {
		t.Fatalf("round trip mismatch")
	}
}

// TestScenarioAlternating4 covers spec scenario 4: a 4x1 RGB row
// alternating A=(0,0,0), B=(10,10,10). The first pixel equals the
// (0,0,0,255) start and is a 1-byte RUN; every later step has vg=+-10,
// which falls in the LUMA464 range (2 bytes) both directions.
func TestScenarioAlternating4(t *testing.T) {
	desc := Descriptor{Width: 4, Height: 1, Channels: 3, Colorspace: 0}
	pixels := []byte{
		0, 0, 0,
		10, 10, 10,
		0, 0, 0,
		10, 10, 10,
	}

	enc, err := EncodeBuffer(pixels, desc, Options{Variant: VariantR})
	if err != nil {
		t.Fatalf("EncodeBuffer: %v", err)
	}
	if len(enc) != 29 {
		t.Fatalf("len(enc) = %d, want 29", len(enc))
	}
	body := enc[container.HeaderSize : len(enc)-container.TerminatorSize]
	if len(body) != 7 {
		t.Fatalf("body len = %d, want 7 (1 + 2 + 2 + 2)", len(body))
	}

	got, _, _, err := DecodeBuffer(enc, 0)
	if err != nil {
		t.Fatalf("DecodeBuffer: %v", err)
	}
	if !bytes.Equal(got, pixels) {
		t.Fatalf("round trip mismatch")
	}
}

// TestScenarioQIndexPath covers spec scenario 5: a Q-variant image
// whose pixels are chosen so that the running index eventually
// collides, at which point the colliding pixel must be emitted as a
// 1-byte INDEX opcode instead of a 4-byte RGB opcode.
func TestScenarioQIndexPath(t *testing.T) {
	desc := Descriptor{Width: 2, Height: 1, Channels: 3, Colorspace: 0}
	first := []byte{10, 20, 30}
	pixels := append(append([]byte{}, first...), first...)

	enc, err := EncodeBuffer(pixels, desc, Options{Variant: VariantQ})
	if err != nil {
		t.Fatalf("EncodeBuffer: %v", err)
	}
	// The second pixel equals the first, so it is consumed as a 1-pixel
	// run (0xc0) rather than an index hit: run detection wins over an
	// index match on an exact repeat.
	if last := enc[len(enc)-container.TerminatorSize-1]; last != 0xc0 {
		t.Fatalf("last opcode = %#02x, want 0xc0 (1-pixel RUN)", last)
	}
	got, _, _, err := DecodeBuffer(enc, 0)
	if err != nil {
		t.Fatalf("DecodeBuffer: %v", err)
	}
	if !bytes.Equal(got, pixels) {
		t.Fatalf("round trip mismatch")
	}

	// Now force a genuine index hit: three distinct colors where the
	// third repeats the first exactly but is separated from it by a
	// different pixel, so it cannot be folded into a run and must hit
	// the index slot the first pixel populated.
	desc2 := Descriptor{Width: 3, Height: 1, Channels: 3, Colorspace: 0}
	a := []byte{10, 20, 30}
	b := []byte{1, 2, 3}
	pixels2 := append(append(append([]byte{}, a...), b...), a...)

	enc2, err := EncodeBuffer(pixels2, desc2, Options{Variant: VariantQ})
	if err != nil {
		t.Fatalf("EncodeBuffer: %v", err)
	}
	got2, _, _, err := DecodeBuffer(enc2, 0)
	if err != nil {
		t.Fatalf("DecodeBuffer: %v", err)
	}
	if !bytes.Equal(got2, pixels2) {
		t.Fatalf("round trip mismatch (index path)")
	}
	if last := enc2[len(enc2)-container.TerminatorSize-1]; last&0xc0 != 0x00 {
		t.Fatalf("last opcode = %#02x, want an INDEX opcode", last)
	}
}

// TestScenarioStreamingTruncation covers spec scenario 6: feeding a
// streaming decoder a truncated opcode stream must consume (W·H − Δ)
// pixels for some Δ and then return TruncatedStream, rather than
// panicking or silently reporting success on a short image.
func TestScenarioStreamingTruncation(t *testing.T) {
	desc := Descriptor{Width: 8, Height: 8, Channels: 3, Colorspace: 0}
	pixels := gradientPixels(64, 3)

	enc, err := EncodeBuffer(pixels, desc, Options{Variant: VariantR})
	if err != nil {
		t.Fatalf("EncodeBuffer: %v", err)
	}
	truncated := enc[:len(enc)-4]

	dec, err := NewDecoder(bytes.NewReader(truncated), 0)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}

	dst := make([]byte, 64*3)
	total := 0
	var readErr error
	for {
		n, err := dec.Read(dst[total:])
		total += n
		if err != nil {
			readErr = err
			break
		}
	}

	var e *Error
	if !errors.As(readErr, &e) || e.Kind != TruncatedStream {
		t.Fatalf("err = %v, want a TruncatedStream Error", readErr)
	}
	decodedPixels := total / 3
	if decodedPixels == 0 || decodedPixels >= 64 {
		t.Fatalf("decoded %d of 64 pixels, want strictly between 0 and 64", decodedPixels)
	}
}

// TestDecodeBufferRequestedChannelsReduction covers spec §4.5's
// channel-reduction law through the public API: decoding a 4-channel
// stream with requested_channels=3 yields exactly the RGB subset of the
// 4-channel decoding, alpha dropped.
func TestDecodeBufferRequestedChannelsReduction(t *testing.T) {
	desc := Descriptor{Width: 8, Height: 8, Channels: 4, Colorspace: 0}
	pixels := gradientPixels(64, 4)

	enc, err := EncodeBuffer(pixels, desc, Options{Variant: VariantR})
	if err != nil {
		t.Fatalf("EncodeBuffer: %v", err)
	}

	full, _, _, err := DecodeBuffer(enc, 0)
	if err != nil {
		t.Fatalf("DecodeBuffer(0): %v", err)
	}
	reduced, gotDesc, _, err := DecodeBuffer(enc, 3)
	if err != nil {
		t.Fatalf("DecodeBuffer(3): %v", err)
	}
	if len(reduced) != 64*3 {
		t.Fatalf("len(reduced) = %d, want %d", len(reduced), 64*3)
	}
	// gotDesc still reports the on-disk descriptor; requested_channels
	// only changes the returned pixel buffer's layout.
	if gotDesc != desc {
		t.Fatalf("descriptor changed by requested_channels: %+v", gotDesc)
	}
	for i := 0; i < 64; i++ {
		want := full[i*4 : i*4+3]
		got := reduced[i*3 : i*3+3]
		if !bytes.Equal(got, want) {
			t.Fatalf("pixel %d: got %v, want %v", i, got, want)
		}
	}
}

// TestDecodeBufferRequestedChannelsExpansion covers spec §4.5's
// channel-expansion law: decoding a 3-channel stream with
// requested_channels=4 yields the same RGB values with alpha filled in
// as 255 throughout (alpha never appears in a 3-channel source).
func TestDecodeBufferRequestedChannelsExpansion(t *testing.T) {
	desc := Descriptor{Width: 8, Height: 8, Channels: 3, Colorspace: 0}
	pixels := gradientPixels(64, 3)

	enc, err := EncodeBuffer(pixels, desc, Options{Variant: VariantQ})
	if err != nil {
		t.Fatalf("EncodeBuffer: %v", err)
	}

	expanded, _, _, err := DecodeBuffer(enc, 4)
	if err != nil {
		t.Fatalf("DecodeBuffer(4): %v", err)
	}
	if len(expanded) != 64*4 {
		t.Fatalf("len(expanded) = %d, want %d", len(expanded), 64*4)
	}
	for i := 0; i < 64; i++ {
		if !bytes.Equal(expanded[i*4:i*4+3], pixels[i*3:i*3+3]) {
			t.Fatalf("pixel %d RGB mismatch: got %v, want %v", i, expanded[i*4:i*4+3], pixels[i*3:i*3+3])
		}
		if expanded[i*4+3] != 255 {
			t.Fatalf("pixel %d alpha = %d, want 255", i, expanded[i*4+3])
		}
	}
}

// TestDecodeBufferRejectsBadRequestedChannels covers the UnknownOption
// path for a requested_channels value outside {0,3,4}.
func TestDecodeBufferRejectsBadRequestedChannels(t *testing.T) {
	desc := Descriptor{Width: 2, Height: 2, Channels: 3, Colorspace: 0}
	pixels := make([]byte, 2*2*3)
	enc, err := EncodeBuffer(pixels, desc, Options{Variant: VariantQ})
	if err != nil {
		t.Fatalf("EncodeBuffer: %v", err)
	}

	_, _, _, err = DecodeBuffer(enc, 2)
	var e *Error
	if !errors.As(err, &e) || e.Kind != UnknownOption {
		t.Fatalf("err = %v, want an UnknownOption Error", err)
	}
}

// TestStreamingDecoderRequestedChannels covers the same expansion law as
// TestDecodeBufferRequestedChannelsExpansion, but through the chunked
// Decoder instead of the one-shot DecodeBuffer.
func TestStreamingDecoderRequestedChannels(t *testing.T) {
	desc := Descriptor{Width: 16, Height: 1, Channels: 3, Colorspace: 0}
	pixels := gradientPixels(16, 3)

	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, desc, Options{Variant: VariantR})
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	if _, err := enc.Write(pixels); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	dec, err := NewDecoder(bytes.NewReader(buf.Bytes()), 4)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	out := make([]byte, 16*4)
	total := 0
	for {
		n, err := dec.Read(out[total:])
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
	}
	for i := 0; i < 16; i++ {
		if !bytes.Equal(out[i*4:i*4+3], pixels[i*3:i*3+3]) {
			t.Fatalf("pixel %d RGB mismatch", i)
		}
		if out[i*4+3] != 255 {
			t.Fatalf("pixel %d alpha = %d, want 255", i, out[i*4+3])
		}
	}
}

// TestOptionsValidateRejectsMegaLUTWithoutTable covers the UnknownOption
// path errors.go documents for Options.Path: requesting PathMegaLUT
// without a usable table must be reported, not silently downgraded the
// way a CPU feature check downgrades PathVector.
func TestOptionsValidateRejectsMegaLUTWithoutTable(t *testing.T) {
	desc := Descriptor{Width: 2, Height: 2, Channels: 3, Colorspace: 0}
	pixels := make([]byte, 2*2*3)

	_, err := EncodeBuffer(pixels, desc, Options{Variant: VariantR, Path: PathMegaLUT})
	var e *Error
	if !errors.As(err, &e) || e.Kind != UnknownOption {
		t.Fatalf("err = %v, want an UnknownOption Error", err)
	}

	_, err = EncodeBuffer(pixels, desc, Options{Variant: VariantQ, Path: PathMegaLUT})
	if !errors.As(err, &e) || e.Kind != UnknownOption {
		t.Fatalf("err = %v, want an UnknownOption Error for VariantQ", err)
	}
}
