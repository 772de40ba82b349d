// Package video's decoder half of §4.5: decode per-NAL input back to
// I420, caching SPS/PPS so a lost reference frame can be recovered by
// requesting a fresh IDR rather than rebuilding decoder state from
// scratch.
package video

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/y9o/go-openh264/openh264dec"
)

// VideoDecoder wraps a go-openh264 decode context. Used from a single
// thread only (§5), so it carries no internal synchronization beyond
// serializing against Close.
type VideoDecoder struct {
	mu  sync.Mutex
	dec *openh264dec.Decoder

	lastSPS, lastPPS []byte
	needsKeyframe    bool
}

// NewVideoDecoder creates a decode context.
func NewVideoDecoder() (*VideoDecoder, error) {
	dec, err := openh264dec.New()
	if err != nil {
		return nil, fmt.Errorf("openh264: decoder: %w", err)
	}
	return &VideoDecoder{dec: dec, needsKeyframe: true}, nil
}

// DecodeResult is the luma/chroma-plane output of one decoded frame.
type DecodeResult struct {
	I420   []byte
	Width  int
	Height int
}

// Decode feeds one NAL unit (header byte + RBSP, no start code — the
// sender splits each access unit into separate NALs per §4.4, so SPS,
// PPS, and the slice each arrive in their own call). nal_unit_type is
// classified from the low 5 bits of the first byte per §4.5; SPS/PPS are
// cached and a change in SPS rebuilds the decode context before any
// further slice is accepted. Slice NALs are AVCC-wrapped (4-byte
// big-endian length prefix, no start code) before being handed to the
// codec. Returns (nil, nil) for parameter-set NALs and for slices
// dropped while waiting on a requested keyframe.
func (d *VideoDecoder) Decode(nal []byte) (*DecodeResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(nal) == 0 {
		return nil, nil
	}

	nalType := nal[0] & 0x1F
	switch nalType {
	case NALTypeSPS:
		if !bytes.Equal(nal, d.lastSPS) {
			if err := d.rebuild(); err != nil {
				return nil, err
			}
			d.lastSPS = append([]byte(nil), nal...)
		}
		return nil, nil
	case NALTypePPS:
		d.lastPPS = append([]byte(nil), nal...)
		return nil, nil
	case NALTypeIDR:
		// handled below
	case NALTypeSlice:
		if d.needsKeyframe {
			// Waiting for the requested IDR; drop non-IDR slices so we
			// never feed the decoder a frame referencing state it never
			// had.
			return nil, nil
		}
	default:
		// §4.5: "Others are dropped."
		return nil, nil
	}

	img, err := d.dec.DecodeI420(avccWrap(nal))
	if err != nil {
		return nil, fmt.Errorf("openh264: decode: %w", err)
	}
	if img == nil {
		return nil, nil
	}
	if nalType == NALTypeIDR {
		d.needsKeyframe = false
	}

	return &DecodeResult{I420: img.Data, Width: img.Width, Height: img.Height}, nil
}

// RequestKeyframeRecovery marks the decoder as waiting for the next IDR,
// used after a reference-loss error is detected downstream (§7: "Decoder
// reference loss ... Send keyframe_request, drop slice").
func (d *VideoDecoder) RequestKeyframeRecovery() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.needsKeyframe = true
}

func (d *VideoDecoder) rebuild() error {
	if d.dec != nil {
		_ = d.dec.Close()
	}
	dec, err := openh264dec.New()
	if err != nil {
		return fmt.Errorf("openh264: rebuild decoder: %w", err)
	}
	d.dec = dec
	d.needsKeyframe = true
	return nil
}

func (d *VideoDecoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dec == nil {
		return nil
	}
	err := d.dec.Close()
	d.dec = nil
	return err
}
