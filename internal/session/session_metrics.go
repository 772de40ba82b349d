package session

import (
	"sync"
	"time"
)

// StreamMetrics tracks real-time performance counters for one beam.
// Grounded on desktop/stream_metrics.go, trimmed to the counters Beam's
// simpler fixed-pipeline (no adaptive bitrate, no scaling stage) can
// actually produce.
type StreamMetrics struct {
	mu sync.RWMutex

	framesCaptured uint64
	framesEncoded  uint64
	framesSent     uint64
	framesDropped  uint64

	lastEncodeTime time.Duration
	lastFrameSize  int
	totalBytesSent uint64

	startTime time.Time
}

func newStreamMetrics() *StreamMetrics {
	return &StreamMetrics{startTime: time.Now()}
}

func (m *StreamMetrics) recordCapture() {
	m.mu.Lock()
	m.framesCaptured++
	m.mu.Unlock()
}

func (m *StreamMetrics) recordEncode(d time.Duration, size int) {
	m.mu.Lock()
	m.framesEncoded++
	m.lastEncodeTime = d
	m.lastFrameSize = size
	m.mu.Unlock()
}

func (m *StreamMetrics) recordSend(size int) {
	m.mu.Lock()
	m.framesSent++
	m.totalBytesSent += uint64(size)
	m.mu.Unlock()
}

func (m *StreamMetrics) recordDrop() {
	m.mu.Lock()
	m.framesDropped++
	m.mu.Unlock()
}

// MetricsSnapshot is a point-in-time copy of StreamMetrics for logging
// (§3's observability addition — not a spec'd operation, just a log line
// at stop).
type MetricsSnapshot struct {
	FramesCaptured uint64
	FramesEncoded  uint64
	FramesSent     uint64
	FramesDropped  uint64
	EncodeMs       float64
	LastFrameSize  int
	BandwidthKBps  float64
	Uptime         time.Duration
}

func (m *StreamMetrics) snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	uptime := time.Since(m.startTime)
	bw := float64(0)
	if uptime.Seconds() > 0 {
		bw = float64(m.totalBytesSent) / uptime.Seconds() / 1024.0
	}

	return MetricsSnapshot{
		FramesCaptured: m.framesCaptured,
		FramesEncoded:  m.framesEncoded,
		FramesSent:     m.framesSent,
		FramesDropped:  m.framesDropped,
		EncodeMs:       float64(m.lastEncodeTime.Microseconds()) / 1000.0,
		LastFrameSize:  m.lastFrameSize,
		BandwidthKBps:  bw,
		Uptime:         uptime,
	}
}

// Metrics returns a snapshot of this session's stream performance
// counters. Meaningful on the sender side only; a receiver-role Session
// returns a zero-valued snapshot since it never captures or encodes.
func (s *Session) Metrics() MetricsSnapshot {
	if s.metrics == nil {
		return MetricsSnapshot{}
	}
	return s.metrics.snapshot()
}
