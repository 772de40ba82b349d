// Package config defines Beam's runtime configuration and how it is
// populated: flags and environment variables only, via viper/cobra, in the
// teacher's internal/config idiom. File-based configuration is an explicit
// non-goal, so viper's config-file search path is never wired.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable named in spec §6.6, plus the ambient
// logging/listener settings every Beam binary needs regardless of role.
type Config struct {
	// §6.6 core tunables.
	TargetFPS           int      `mapstructure:"target_fps"`
	VideoBitrate        int      `mapstructure:"video_bitrate"`
	AudioBitrateStereo  int      `mapstructure:"audio_bitrate_stereo"`
	AudioBitrateMono    int      `mapstructure:"audio_bitrate_mono"`
	MuteBlacklist       []string `mapstructure:"mute_blacklist"`
	MaxKeyframeInterval int      `mapstructure:"max_keyframe_interval"`
	HeartbeatInterval   time.Duration `mapstructure:"heartbeat_interval"`
	HeartbeatTimeout    time.Duration `mapstructure:"heartbeat_timeout"`
	ReassemblyGCWindow  uint32   `mapstructure:"reassembly_gc_window"`

	// Discovery/identity.
	DeviceName string `mapstructure:"device_name"`
	DeviceID   string `mapstructure:"device_id"`
	Platform   string `mapstructure:"platform"`

	// ControlChannel listener.
	ListenPort int `mapstructure:"listen_port"`

	// PreferHardwareEncoder selects the platform VideoToolbox backend over
	// go-openh264 software encode when both are available (§4.4).
	PreferHardwareEncoder bool `mapstructure:"prefer_hardware_encoder"`

	// Logging.
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Default returns the §6.6 defaults table, plus ambient defaults.
func Default() *Config {
	return &Config{
		TargetFPS:             30,
		VideoBitrate:          8_000_000,
		AudioBitrateStereo:    128_000,
		AudioBitrateMono:      64_000,
		MuteBlacklist:         []string{"com.google.Chrome"},
		MaxKeyframeInterval:   60,
		HeartbeatInterval:     5 * time.Second,
		HeartbeatTimeout:      10 * time.Second,
		ReassemblyGCWindow:    90_000,
		Platform:              platformTag(),
		ListenPort:            0, // system-chosen unless overridden
		PreferHardwareEncoder: true,
		LogLevel:              "info",
		LogFormat:             "text",
	}
}

// Load builds a Config from defaults overlaid by environment variables
// (prefix BEAM_, e.g. BEAM_TARGET_FPS). No flags are bound to viper;
// cmd/beam applies its --log-level/--log-format overrides to the returned
// Config itself. It never reads a config file.
func Load() (*Config, error) {
	cfg := Default()

	viper.SetEnvPrefix("BEAM")
	viper.AutomaticEnv()
	// Unmarshal only sees keys viper knows about, so bind each one.
	for _, key := range []string{
		"target_fps", "video_bitrate", "audio_bitrate_stereo", "audio_bitrate_mono",
		"mute_blacklist", "max_keyframe_interval", "heartbeat_interval", "heartbeat_timeout",
		"reassembly_gc_window", "device_name", "device_id", "platform", "listen_port",
		"prefer_hardware_encoder", "log_level", "log_format",
	} {
		_ = viper.BindEnv(key)
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	deviceID, err := loadOrCreateDeviceID()
	if err != nil {
		return nil, fmt.Errorf("config: device id: %w", err)
	}
	cfg.DeviceID = deviceID

	if cfg.DeviceName == "" {
		if host, err := os.Hostname(); err == nil {
			cfg.DeviceName = host
		} else {
			cfg.DeviceName = "beam-device"
		}
	}

	return cfg, nil
}

// deviceIDFile is the §6.6.1 persisted key-value store: a tiny YAML file
// under the user's config directory, the one piece of on-disk state §6.5
// allows.
type deviceIDFile struct {
	DeviceID string `yaml:"deviceId"`
}

func deviceIDPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "beam", "device.yaml"), nil
}

func loadOrCreateDeviceID() (string, error) {
	path, err := deviceIDPath()
	if err != nil {
		// No platform config dir available: fall back to an ephemeral ID
		// rather than failing startup outright.
		return uuid.NewString(), nil
	}

	if data, err := os.ReadFile(path); err == nil {
		var f deviceIDFile
		if err := yaml.Unmarshal(data, &f); err == nil && f.DeviceID != "" {
			return f.DeviceID, nil
		}
	}

	id := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return id, nil
	}
	data, err := yaml.Marshal(deviceIDFile{DeviceID: id})
	if err != nil {
		return id, nil
	}
	_ = os.WriteFile(path, data, 0o600)
	return id, nil
}

func platformTag() string {
	switch runtime.GOOS {
	case "darwin":
		return "mac"
	case "android":
		return "android"
	default:
		return runtime.GOOS
	}
}
