package camera

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.CameraID != 0 {
		t.Errorf("CameraID = %d, want 0", cfg.CameraID)
	}
	if cfg.Resize {
		t.Error("Resize should be off by default")
	}
	if cfg.Width != 320 || cfg.Height != 240 {
		t.Errorf("resize target = %dx%d, want 320x240", cfg.Width, cfg.Height)
	}
	if cfg.RefreshRate != 8 {
		t.Errorf("RefreshRate = %v, want 8", cfg.RefreshRate)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("default config invalid: %v", errs)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"negative camera", func(c *Config) { c.CameraID = -1 }, true},
		{"zero rate", func(c *Config) { c.RefreshRate = 0 }, true},
		{"rate too high", func(c *Config) { c.RefreshRate = 120 }, true},
		{"quality zero", func(c *Config) { c.JPEGQuality = 0 }, true},
		{"quality too high", func(c *Config) { c.JPEGQuality = 101 }, true},
		{"tiny resize", func(c *Config) { c.Resize = true; c.Width = 10 }, true},
		{"tiny size ignored without resize", func(c *Config) { c.Width = 10 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			errs := cfg.Validate()
			if (len(errs) > 0) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", errs, tt.wantErr)
			}
		})
	}
}

func TestPresets(t *testing.T) {
	for _, name := range PresetNames() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Errorf("preset %q missing", name)
			continue
		}
		if errs := cfg.Validate(); len(errs) > 0 {
			t.Errorf("preset %q invalid: %v", name, errs)
		}
	}
	if GetPreset("8k") != nil {
		t.Error("unknown preset should be nil")
	}
	if !LowLatencyConfig().Resize {
		t.Error("low latency should resize")
	}
}
