package audio

// NewCapture creates the platform per-application audio tap for pid. The
// capture never consults the mute blacklist (§4.7.1) and attaches no local
// mute tap, matching the teacher's AudioCapturer, which is similarly
// policy-free and only knows how to start/stop a tap.
func NewCapture(pid int) (Capture, error) {
	return newPlatformCapture(pid)
}

// NewPlayback creates the platform playback engine.
func NewPlayback(channels int) (Playback, error) {
	return newPlatformPlayback(channels)
}
