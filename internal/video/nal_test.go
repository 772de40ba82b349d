package video

import (
	"bytes"
	"testing"
)

func annexB(nals ...[]byte) []byte {
	var buf []byte
	for _, n := range nals {
		buf = append(buf, 0, 0, 0, 1)
		buf = append(buf, n...)
	}
	return buf
}

func TestSplitAnnexBKeyframeAccessUnit(t *testing.T) {
	sps := []byte{0x67, 0x01, 0x02}
	pps := []byte{0x68, 0x03}
	idr := []byte{0x65, 0x04, 0x05, 0x06}

	units := splitAnnexB(annexB(sps, pps, idr))
	if len(units) != 3 {
		t.Fatalf("got %d units, want 3", len(units))
	}
	if units[0].Type != NALTypeSPS || !bytes.Equal(units[0].Data, sps) {
		t.Errorf("unit 0 = %+v, want SPS %x", units[0], sps)
	}
	if units[1].Type != NALTypePPS || !bytes.Equal(units[1].Data, pps) {
		t.Errorf("unit 1 = %+v, want PPS %x", units[1], pps)
	}
	if units[2].Type != NALTypeIDR || !bytes.Equal(units[2].Data, idr) {
		t.Errorf("unit 2 = %+v, want IDR %x", units[2], idr)
	}
}

func TestSplitAnnexBSingleSlice(t *testing.T) {
	slice := []byte{0x41, 0x10, 0x20}
	units := splitAnnexB(annexB(slice))
	if len(units) != 1 {
		t.Fatalf("got %d units, want 1", len(units))
	}
	if units[0].Type != NALTypeSlice || !bytes.Equal(units[0].Data, slice) {
		t.Errorf("unit 0 = %+v, want non-IDR slice %x", units[0], slice)
	}
}

func TestSplitAnnexBEmpty(t *testing.T) {
	if units := splitAnnexB(nil); len(units) != 0 {
		t.Errorf("got %d units for empty input, want 0", len(units))
	}
}

func TestAVCCWrap(t *testing.T) {
	nal := []byte{0x65, 0xAA, 0xBB, 0xCC}
	wrapped := avccWrap(nal)

	wantLen := []byte{0x00, 0x00, 0x00, 0x04}
	if !bytes.Equal(wrapped[:4], wantLen) {
		t.Errorf("length prefix = %x, want %x", wrapped[:4], wantLen)
	}
	if !bytes.Equal(wrapped[4:], nal) {
		t.Errorf("payload = %x, want %x", wrapped[4:], nal)
	}
}
