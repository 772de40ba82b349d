package video

import (
	"errors"
	"fmt"
	"sync"
)

// EncoderConfig configures a VideoEncoder (§4.4, §6.6 defaults live in
// internal/config and are passed in here by the session).
type EncoderConfig struct {
	Width, Height       int
	TargetFPS           int
	Bitrate             int
	MaxKeyframeInterval int // forced IDR cadence, in frames
	PreferHardware      bool
}

var (
	ErrInvalidBitrate = errors.New("video: invalid bitrate")
	ErrInvalidFPS      = errors.New("video: invalid fps")
	ErrNotInitialized  = errors.New("video: encoder not initialized")
)

// encoderBackend is implemented by each concrete H.264 encoder
// (go-openh264 software, VideoToolbox hardware on darwin). Grounded on
// desktop/encoder.go's encoderBackend interface, trimmed of the Windows
// DXGI/D3D11 zero-copy methods (SetD3D11Device, EncodeTexture,
// SupportsGPUInput) — Beam captures via ScreenCaptureKit/platform APIs
// into CPU-resident frames, so there is no GPU texture handoff to model;
// see DESIGN.md for this drop.
type encoderBackend interface {
	Encode(yuv []byte) (annexB []byte, isKeyframe bool, err error)
	ForceKeyframe() error
	SetBitrate(bitrate int) error
	SetFPS(fps int) error
	Close() error
	Name() string
	IsHardware() bool
}

type backendFactory func(cfg EncoderConfig) (encoderBackend, error)

var (
	hardwareFactoriesMu sync.Mutex
	hardwareFactories   []backendFactory
)

// registerHardwareFactory lets a platform-specific build (e.g. the darwin
// VideoToolbox backend) offer itself as a hardware encoder candidate.
func registerHardwareFactory(factory backendFactory) {
	hardwareFactoriesMu.Lock()
	defer hardwareFactoriesMu.Unlock()
	hardwareFactories = append(hardwareFactories, factory)
}

// VideoEncoder wraps the selected backend, tracks frames-since-keyframe
// for the forced IDR cadence, and serializes backend access — matching
// desktop/encoder.go's single-threaded-per-context concurrency model
// (§5: "The VideoEncoder/Decoder contexts are used from only one thread
// each").
type VideoEncoder struct {
	mu      sync.Mutex
	cfg     EncoderConfig
	backend encoderBackend

	framesSinceKeyframe int
}

// NewVideoEncoder selects a backend (a registered hardware factory if
// PreferHardware is set and one succeeds, else go-openh264 software) and
// returns a ready encoder.
func NewVideoEncoder(cfg EncoderConfig) (*VideoEncoder, error) {
	cfg = applyEncoderDefaults(cfg)
	if cfg.Bitrate <= 0 {
		return nil, ErrInvalidBitrate
	}
	if cfg.TargetFPS <= 0 {
		return nil, ErrInvalidFPS
	}

	backend, err := newBackend(cfg)
	if err != nil {
		return nil, fmt.Errorf("video: create encoder backend: %w", err)
	}

	return &VideoEncoder{cfg: cfg, backend: backend}, nil
}

func applyEncoderDefaults(cfg EncoderConfig) EncoderConfig {
	if cfg.TargetFPS == 0 {
		cfg.TargetFPS = 30
	}
	if cfg.Bitrate == 0 {
		cfg.Bitrate = 8_000_000
	}
	if cfg.MaxKeyframeInterval == 0 {
		cfg.MaxKeyframeInterval = 60
	}
	return cfg
}

func newBackend(cfg EncoderConfig) (encoderBackend, error) {
	if cfg.PreferHardware {
		if backend := tryHardware(cfg); backend != nil {
			return backend, nil
		}
	}
	return newOpenH264Encoder(cfg)
}

func tryHardware(cfg EncoderConfig) encoderBackend {
	hardwareFactoriesMu.Lock()
	factories := append([]backendFactory(nil), hardwareFactories...)
	hardwareFactoriesMu.Unlock()
	for _, factory := range factories {
		backend, err := factory(cfg)
		if err == nil && backend != nil {
			return backend
		}
	}
	return nil
}

// EncodedNAL is one NAL unit produced by a single Encode call, with its
// start code stripped (header byte + RBSP). §4.4 requires a keyframe
// access unit's parameter sets to reach the sink as separate NALs ahead
// of the slice that needs them, each tagged with the same IsKeyframe
// value as the slice; Encode does that splitting here since the
// underlying codec only hands back one Annex-B access unit per call.
type EncodedNAL struct {
	Data       []byte
	IsKeyframe bool
}

// Encode submits one I420 frame and returns the NAL units of its encoded
// access unit, in encode order (SPS, PPS, then the slice, when the
// backend produced a keyframe). Encode asks the backend for a keyframe
// itself once MaxKeyframeInterval frames have passed since the last one
// (or after ForceKeyframe), and tags each NAL with whether this access
// unit is a keyframe. Returns (nil, nil) when the backend
// buffers the frame without producing output yet.
func (e *VideoEncoder) Encode(yuv []byte) ([]EncodedNAL, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.backend == nil {
		return nil, ErrNotInitialized
	}

	if e.framesSinceKeyframe >= e.cfg.MaxKeyframeInterval {
		_ = e.backend.ForceKeyframe()
	}

	annexB, isKeyframe, err := e.backend.Encode(yuv)
	if err != nil {
		return nil, err
	}

	if isKeyframe {
		e.framesSinceKeyframe = 0
	} else {
		e.framesSinceKeyframe++
	}

	if len(annexB) == 0 {
		return nil, nil
	}

	units := splitAnnexB(annexB)
	nals := make([]EncodedNAL, len(units))
	for i, u := range units {
		nals[i] = EncodedNAL{Data: u.Data, IsKeyframe: isKeyframe}
	}
	return nals, nil
}

// ForceKeyframe requests an IDR on the next Encode call, used on
// keyframe_request (§4.10) and after a capture source swap.
func (e *VideoEncoder) ForceKeyframe() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.backend == nil {
		return ErrNotInitialized
	}
	e.framesSinceKeyframe = e.cfg.MaxKeyframeInterval
	return nil
}

func (e *VideoEncoder) SetBitrate(bitrate int) error {
	if bitrate <= 0 {
		return ErrInvalidBitrate
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.backend == nil {
		return ErrNotInitialized
	}
	if err := e.backend.SetBitrate(bitrate); err != nil {
		return err
	}
	e.cfg.Bitrate = bitrate
	return nil
}

// BackendName reports which backend is active, e.g. "openh264" or
// "videotoolbox".
func (e *VideoEncoder) BackendName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.backend == nil {
		return ""
	}
	return e.backend.Name()
}

func (e *VideoEncoder) Close() error {
	e.mu.Lock()
	backend := e.backend
	e.backend = nil
	e.mu.Unlock()
	if backend == nil {
		return nil
	}
	return backend.Close()
}
