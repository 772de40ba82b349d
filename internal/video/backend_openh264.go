package video

import (
	"errors"
	"fmt"
	"sync"

	"github.com/y9o/go-openh264/openh264enc"
)

// openH264Encoder is the default software backend, wired over
// github.com/y9o/go-openh264 — carried forward from the teacher's go.mod
// rather than the encoder_software.go passthrough placeholder it
// shipped with (that file never called a real codec; Beam's software path
// is load-bearing, since not every receiver will have hardware decode).
type openH264Encoder struct {
	mu  sync.Mutex
	cfg EncoderConfig
	enc *openh264enc.Encoder
}

func newOpenH264Encoder(cfg EncoderConfig) (encoderBackend, error) {
	enc, err := openh264enc.New(openh264enc.Config{
		Width:     cfg.Width,
		Height:    cfg.Height,
		FPS:       cfg.TargetFPS,
		BitrateBps: cfg.Bitrate,
	})
	if err != nil {
		return nil, fmt.Errorf("openh264: %w", err)
	}
	return &openH264Encoder{cfg: cfg, enc: enc}, nil
}

func (o *openH264Encoder) Encode(yuv []byte) ([]byte, bool, error) {
	if len(yuv) == 0 {
		return nil, false, errors.New("openh264: empty frame")
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	annexB, frameType, err := o.enc.EncodeI420(yuv)
	if err != nil {
		return nil, false, err
	}
	return annexB, frameType == openh264enc.FrameTypeIDR, nil
}

func (o *openH264Encoder) ForceKeyframe() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.enc.ForceIntraFrame()
}

func (o *openH264Encoder) SetBitrate(bitrate int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.enc.SetBitrateBps(bitrate); err != nil {
		return err
	}
	o.cfg.Bitrate = bitrate
	return nil
}

func (o *openH264Encoder) SetFPS(fps int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cfg.TargetFPS = fps
	return o.enc.SetMaxFrameRate(float32(fps))
}

func (o *openH264Encoder) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.enc.Close()
}

func (o *openH264Encoder) Name() string { return "openh264" }

func (o *openH264Encoder) IsHardware() bool { return false }
