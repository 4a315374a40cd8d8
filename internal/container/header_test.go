package container

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriteParseHeaderQ(t *testing.T) {
	desc := Descriptor{Width: 640, Height: 480, Channels: 4, Colorspace: 1}
	buf := make([]byte, HeaderSize)
	p := 0
	WriteHeader(buf, &p, VariantQ, desc)
	if p != HeaderSize {
		t.Fatalf("WriteHeader advanced cursor to %d, want %d", p, HeaderSize)
	}
	v, got, err := ParseHeader(buf)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if v != VariantQ {
		t.Fatalf("variant = %v, want VariantQ", v)
	}
	if !cmp.Equal(got, desc) {
		t.Fatalf("descriptor mismatch (-got +want):\n%s", cmp.Diff(got, desc))
	}
}

func TestWriteParseHeaderR(t *testing.T) {
	desc := Descriptor{Width: 1, Height: 1, Channels: 3, Colorspace: 2}
	buf := make([]byte, HeaderSize)
	p := 0
	WriteHeader(buf, &p, VariantR, desc)
	v, got, err := ParseHeader(buf)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if v != VariantR || !cmp.Equal(got, desc) {
		t.Fatalf("got variant=%v desc=%+v, want variant=%v desc=%+v", v, got, VariantR, desc)
	}
	if !got.RLEDisabled() {
		t.Fatalf("colorspace bit 1 set should report RLEDisabled")
	}
}

func TestParseHeaderBadMagic(t *testing.T) {
	buf := make([]byte, HeaderSize)
	copy(buf, []byte{'x', 'x', 'x', 'x'})
	if _, _, err := ParseHeader(buf); err == nil {
		t.Fatalf("expected an error for bad magic")
	}
}

func TestParseHeaderShort(t *testing.T) {
	if _, _, err := ParseHeader(make([]byte, HeaderSize-1)); err != ErrShortHeader {
		t.Fatalf("got %v, want ErrShortHeader", err)
	}
}

func TestValidateRejectsZeroDimension(t *testing.T) {
	d := Descriptor{Width: 0, Height: 10, Channels: 3}
	if err := d.Validate(VariantQ); err != ErrZeroDimension {
		t.Fatalf("got %v, want ErrZeroDimension", err)
	}
}

func TestValidateRejectsBadChannels(t *testing.T) {
	d := Descriptor{Width: 1, Height: 1, Channels: 5}
	if err := d.Validate(VariantQ); err != ErrBadChannels {
		t.Fatalf("got %v, want ErrBadChannels", err)
	}
}

func TestValidateColorspaceRangeDiffersByVariant(t *testing.T) {
	d := Descriptor{Width: 1, Height: 1, Channels: 3, Colorspace: 3}
	if err := d.Validate(VariantQ); err != ErrBadColorspace {
		t.Fatalf("VariantQ should reject colorspace 3, got %v", err)
	}
	if err := d.Validate(VariantR); err != nil {
		t.Fatalf("VariantR should accept colorspace 3, got %v", err)
	}
}

func TestValidateRejectsTooManyPixels(t *testing.T) {
	d := Descriptor{Width: 30000, Height: 30000, Channels: 3}
	if err := d.Validate(VariantQ); err != ErrTooManyPixels {
		t.Fatalf("got %v, want ErrTooManyPixels", err)
	}
}
