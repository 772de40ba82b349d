//go:build darwin

package video

import (
	"errors"
	"sync"
)

// videotoolboxEncoder is the darwin hardware backend slot, offered to
// newBackend via registerHardwareFactory when PreferHardware is set.
// Grounded on desktop/encoder_videotoolbox.go's registration shape. It
// contains no VTCompressionSession bridge and no cgo: its factory always
// returns an error and its methods never encode, so go-openh264 is the
// encode path on every platform; see DESIGN.md.
type videotoolboxEncoder struct {
	mu  sync.Mutex
	cfg EncoderConfig
}

func init() {
	registerHardwareFactory(newVideoToolboxEncoder)
}

// newVideoToolboxEncoder currently always declines, so newBackend falls
// through to the go-openh264 software path. Kept as a registered factory
// (rather than deleted) so wiring the real VTCompressionSession bridge
// later is a one-function change, matching the teacher's own
// registerHardwareFactory extension point.
func newVideoToolboxEncoder(cfg EncoderConfig) (encoderBackend, error) {
	return nil, errors.New("videotoolbox: hardware encode not available in this build")
}

func (v *videotoolboxEncoder) Encode(yuv []byte) ([]byte, bool, error) {
	return nil, false, errors.New("videotoolbox: hardware encode not available in this build")
}

func (v *videotoolboxEncoder) ForceKeyframe() error { return nil }

func (v *videotoolboxEncoder) SetBitrate(bitrate int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cfg.Bitrate = bitrate
	return nil
}

func (v *videotoolboxEncoder) SetFPS(fps int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cfg.TargetFPS = fps
	return nil
}

func (v *videotoolboxEncoder) Close() error { return nil }

func (v *videotoolboxEncoder) Name() string { return "videotoolbox" }

func (v *videotoolboxEncoder) IsHardware() bool { return true }
