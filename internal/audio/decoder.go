package audio

import (
	"fmt"
	"sync"

	"github.com/winlinvip/go-fdkaac/fdkaac"
)

// Decoder turns AAC-LC packets back into interleaved float32 PCM (§4.7
// "Receive ... passes payload bytes to Decode, which yields interleaved
// PCM buffers").
type Decoder struct {
	mu       sync.Mutex
	dec      *fdkaac.AacDecoder
	channels int
}

func NewDecoder(channels int) (*Decoder, error) {
	dec := fdkaac.NewAacDecoder()
	if err := dec.InitRaw(fdkaac.AacDecoderParams{
		SampleRate: SampleRate,
		Channels:   channels,
	}); err != nil {
		return nil, fmt.Errorf("fdkaac: init decoder: %w", err)
	}
	return &Decoder{dec: dec, channels: channels}, nil
}

// Decode returns one interleaved PCM buffer for the given AAC-LC packet.
func (d *Decoder) Decode(packet []byte) (PCM, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dec == nil {
		return PCM{}, fmt.Errorf("audio: decoder closed")
	}

	pcm16, err := d.dec.Decode(packet)
	if err != nil {
		return PCM{}, fmt.Errorf("fdkaac: decode: %w", err)
	}

	samples := int16ToFloat(pcm16)
	return PCM{
		Samples:  samples,
		Frames:   len(samples) / d.channels,
		Channels: d.channels,
	}, nil
}

func (d *Decoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dec == nil {
		return nil
	}
	err := d.dec.Close()
	d.dec = nil
	return err
}

func int16ToFloat(in []int16) []float32 {
	out := make([]float32, len(in))
	for i, s := range in {
		out[i] = float32(s) / 32767
	}
	return out
}
