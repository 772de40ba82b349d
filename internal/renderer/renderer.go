// Package renderer implements the receiver-side half of §4.6: accepting
// decoded I420 frames off the network thread and presenting them on the
// platform's display layer without blocking the decode loop that feeds it.
//
// Grounded on session_stream.go's sample-scheduling idiom — frames are
// wrapped and handed to a sink rather than drawn inline — generalized from
// a WebRTC media.Sample track write to a platform display-layer Push.
package renderer

import (
	"context"
	"log/slog"
	"sync"
)

// Frame is one decoded picture ready for display.
type Frame struct {
	I420          []byte
	Width, Height int
}

// Sink is the platform display layer a Renderer drives. Push must not
// block the caller for more than a frame interval; a backend that cannot
// keep up should drop rather than queue unboundedly.
type Sink interface {
	Push(f Frame) error
	Resize(width, height int) error
	Close() error
}

// Renderer decouples frame arrival (decode loop) from presentation (UI
// thread / display layer), matching the teacher's pattern of a dedicated
// loop between capture and the outgoing track. Only the newest frame is
// kept when the sink falls behind — Beam is an interactive control session,
// not a recording pipeline, so latency outranks completeness (§4.6, §7
// backpressure rules).
type Renderer struct {
	sink Sink
	log  *slog.Logger

	mu      sync.Mutex
	pending *Frame
	signal  chan struct{}

	lastWidth, lastHeight int

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// New starts the renderer's drain loop against sink.
func New(sink Sink, log *slog.Logger) *Renderer {
	if log == nil {
		log = slog.Default()
	}
	r := &Renderer{
		sink:   sink,
		log:    log,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	r.wg.Add(1)
	go r.loop()
	return r
}

// Enqueue replaces the currently pending frame. Never blocks.
func (r *Renderer) Enqueue(f Frame) {
	r.mu.Lock()
	r.pending = &f
	r.mu.Unlock()
	select {
	case r.signal <- struct{}{}:
	default:
	}
}

func (r *Renderer) loop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.done:
			return
		case <-r.signal:
			r.drain()
		}
	}
}

func (r *Renderer) drain() {
	r.mu.Lock()
	f := r.pending
	r.pending = nil
	r.mu.Unlock()
	if f == nil {
		return
	}

	if f.Width != r.lastWidth || f.Height != r.lastHeight {
		if err := r.sink.Resize(f.Width, f.Height); err != nil {
			r.log.Warn("renderer: resize failed", "error", err)
		}
		r.lastWidth, r.lastHeight = f.Width, f.Height
	}
	if err := r.sink.Push(*f); err != nil {
		r.log.Debug("renderer: dropped frame", "error", err)
	}
}

// Stop waits (bounded by ctx) for the drain loop to exit and closes the
// sink. A frame still pending when Stop is called is not presented.
func (r *Renderer) Stop(ctx context.Context) error {
	r.closeOnce.Do(func() {
		close(r.done)
	})
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
	return r.sink.Close()
}
