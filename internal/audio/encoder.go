package audio

import (
	"fmt"
	"sync"

	"github.com/winlinvip/go-fdkaac/fdkaac"
)

// bitrateFor returns the spec's fixed AAC-LC bitrate for a channel count
// (§4.7: "128 kb/s stereo (64 kb/s mono)").
func bitrateFor(channels int) int {
	if channels == 1 {
		return 64000
	}
	return 128000
}

// Encoder accumulates interleaved float32 PCM into fixed FrameSize windows
// and emits one AAC-LC packet per completed window. Used from a single
// goroutine (the capture callback), so it carries no internal locking
// beyond guarding Close against a concurrent Feed.
type Encoder struct {
	mu       sync.Mutex
	enc      *fdkaac.AacEncoder
	channels int

	pending []int16 // interleaved PCM16 accumulator, in samples (not frames)
}

// NewEncoder creates an AAC-LC encoder for the given channel count at
// SampleRate.
func NewEncoder(channels int) (*Encoder, error) {
	enc := fdkaac.NewAacEncoder()
	if err := enc.InitRaw(fdkaac.AacEncoderParams{
		SampleRate:  SampleRate,
		Channels:    channels,
		BitRate:     bitrateFor(channels),
		BitRateMode: 0,
		Afterburner: 1,
	}); err != nil {
		return nil, fmt.Errorf("fdkaac: init: %w", err)
	}
	return &Encoder{enc: enc, channels: channels}, nil
}

// Feed appends an arbitrarily sized PCM block and returns zero or more
// complete AAC-LC packets, one per FrameSize-sample window consumed.
func (e *Encoder) Feed(p PCM) ([][]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.enc == nil {
		return nil, fmt.Errorf("audio: encoder closed")
	}

	e.pending = append(e.pending, floatToInt16(p.Samples)...)

	windowSamples := FrameSize * e.channels
	var packets [][]byte
	for len(e.pending) >= windowSamples {
		window := e.pending[:windowSamples]
		out, err := e.enc.Encode(window)
		if err != nil {
			return packets, fmt.Errorf("fdkaac: encode: %w", err)
		}
		if len(out) > 0 {
			packets = append(packets, out)
		}
		e.pending = e.pending[windowSamples:]
	}
	return packets, nil
}

func (e *Encoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.enc == nil {
		return nil
	}
	err := e.enc.Close()
	e.enc = nil
	return err
}

func floatToInt16(in []float32) []int16 {
	out := make([]int16, len(in))
	for i, s := range in {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		out[i] = int16(s * 32767)
	}
	return out
}
