package audio

import "sync"

// Playback is the platform audio-output engine driving a non-interleaved
// PCM queue. Implementations accept buffers in arrival order and must
// rely on no jitter buffer beyond their own internal one (§4.7: "No
// jitter buffer beyond the playback engine's own").
type Playback interface {
	Enqueue(planes [][]float32, frames int) error
	Close() error
}

// Player is the platform-independent half: it converts each decoded PCM
// block to non-interleaved planes and hands them to the platform engine.
// The mute blacklist or local mute toggle is checked by the caller before
// Submit (§4.7.1) — Player itself has no opinion about muting.
type Player struct {
	mu      sync.Mutex
	backend Playback
}

func NewPlayer(backend Playback) *Player {
	return &Player{backend: backend}
}

// Submit converts p to non-interleaved planes and enqueues them.
func (pl *Player) Submit(p PCM) error {
	planes := deinterleave(p.Samples, p.Channels)
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.backend.Enqueue(planes, p.Frames)
}

func (pl *Player) Close() error {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.backend.Close()
}
