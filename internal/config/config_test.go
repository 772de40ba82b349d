package config

import "testing"

func TestDefaultMatchesSpecTable(t *testing.T) {
	cfg := Default()

	cases := []struct {
		name string
		got  any
		want any
	}{
		{"TargetFPS", cfg.TargetFPS, 30},
		{"VideoBitrate", cfg.VideoBitrate, 8_000_000},
		{"AudioBitrateStereo", cfg.AudioBitrateStereo, 128_000},
		{"AudioBitrateMono", cfg.AudioBitrateMono, 64_000},
		{"MaxKeyframeInterval", cfg.MaxKeyframeInterval, 60},
		{"ReassemblyGCWindow", cfg.ReassemblyGCWindow, uint32(90_000)},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	if len(cfg.MuteBlacklist) != 1 || cfg.MuteBlacklist[0] != "com.google.Chrome" {
		t.Errorf("MuteBlacklist = %v, want [com.google.Chrome]", cfg.MuteBlacklist)
	}
	if cfg.HeartbeatInterval.Seconds() != 5 {
		t.Errorf("HeartbeatInterval = %v, want 5s", cfg.HeartbeatInterval)
	}
	if cfg.HeartbeatTimeout.Seconds() != 10 {
		t.Errorf("HeartbeatTimeout = %v, want 10s", cfg.HeartbeatTimeout)
	}
}

func TestLoadPersistsDeviceID(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg1, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg1.DeviceID == "" {
		t.Fatal("expected a non-empty device ID")
	}

	cfg2, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg2.DeviceID != cfg1.DeviceID {
		t.Fatalf("device ID not persisted across loads: %q != %q", cfg1.DeviceID, cfg2.DeviceID)
	}
}
