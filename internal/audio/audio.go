// Package audio implements §4.7's real-time audio pipeline: per-application
// float32 PCM capture, AAC-LC encode/decode, and queued playback.
//
// Grounded on desktop/audio.go's minimal AudioCapturer interface
// (Start(callback)/Stop) and session_stream.go's audioEnabled.Load()
// local-mute gate, generalized from 8kHz mono μ-law to 48kHz stereo
// float32 PCM and from a fixed codec to AAC-LC via
// github.com/winlinvip/go-fdkaac (an out-of-pack ecosystem dependency —
// the pack carries no AAC binding; see DESIGN.md).
package audio

import "errors"

const (
	// SampleRate is the fixed capture/playback rate (§4.7).
	SampleRate = 48000
	// FrameSize is the AAC-LC encoder window, in samples per channel.
	FrameSize = 1024
)

// ErrCaptureNotSupported is returned by platforms without an audio tap
// implementation.
var ErrCaptureNotSupported = errors.New("audio: capture not supported on this platform")

// ErrPlaybackNotSupported is returned by platforms without a playback
// backend.
var ErrPlaybackNotSupported = errors.New("audio: playback not supported on this platform")

// PCM is an interleaved 32-bit float PCM block as delivered by Capture.
type PCM struct {
	Samples  []float32 // interleaved, len == Frames*Channels
	Frames   int
	Channels int
}

// Capture taps a target application's audio output. Start's callback is
// invoked from the capture thread with arbitrarily sized interleaved PCM
// blocks (§4.7: "frames arrive in blocks of arbitrary size"); it must not
// block.
type Capture interface {
	Start(callback func(PCM)) error
	Stop() error
}

// deinterleave splits interleaved PCM into one slice per channel, the
// layout the playback engine requires (§4.7 "Playback converts
// interleaved PCM to non-interleaved").
func deinterleave(samples []float32, channels int) [][]float32 {
	frames := len(samples) / channels
	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			out[c][i] = samples[i*channels+c]
		}
	}
	return out
}
