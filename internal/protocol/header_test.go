package protocol

import (
	"bytes"
	"testing"
)

func TestEncodeHeaderExactBytes(t *testing.T) {
	h := Header{
		Sequence:  0xABCD,
		Timestamp: 0x12345678,
		Flags:     0x07,
		FragIndex: 0x0102,
		FragCount: 0x0304,
	}
	got := Encode(h)
	want := []byte{0xAB, 0xCD, 0x12, 0x34, 0x56, 0x78, 0x07, 0x00, 0x01, 0x02, 0x03, 0x04}
	if !bytes.Equal(got, want) {
		t.Fatalf("Encode() = % x, want % x", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []Header{
		{},
		{Sequence: 0xFFFF, Timestamp: 0xFFFFFFFF, Flags: 0xFF, FragIndex: 0xFFFF, FragCount: 0xFFFF},
		{Sequence: 1, Timestamp: 90000, Flags: FlagStart | FlagEnd | FlagKeyframe, FragIndex: 0, FragCount: 1},
	}
	for _, h := range cases {
		got, err := Decode(Encode(h))
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if got != h {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, h)
		}
	}
}

func TestDecodeTruncated(t *testing.T) {
	if _, err := Decode(make([]byte, HeaderSize-1)); err != ErrTruncated {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestFlagHelpers(t *testing.T) {
	h := Header{Flags: FlagStart | FlagKeyframe}
	if !h.IsStart() || !h.IsKeyframe() || h.IsEnd() {
		t.Fatalf("flag helpers disagree with flags byte %08b", h.Flags)
	}
}
