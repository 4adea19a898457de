package tracking

import "testing"

func TestDefaultScanConfig(t *testing.T) {
	cfg := DefaultScanConfig()

	if cfg.AreaThreshold != 10000 {
		t.Errorf("Expected AreaThreshold=10000, got %v", cfg.AreaThreshold)
	}
	if cfg.ScanDistance != 200 {
		t.Errorf("Expected ScanDistance=200, got %v", cfg.ScanDistance)
	}
	if cfg.YawClampLow != -60 || cfg.YawClampHigh != 80 {
		t.Errorf("Expected clamp [-60, 80], got [%v, %v]", cfg.YawClampLow, cfg.YawClampHigh)
	}
	if cfg.PreciseRatio {
		t.Error("PreciseRatio should be off by default")
	}
}

func TestDefaultColorRange(t *testing.T) {
	r := DefaultColorRange()
	want := ColorRange{LowH: 53, HighH: 83, LowS: 60, HighS: 255, LowV: 60, HighV: 255}
	if r != want {
		t.Errorf("got %+v, want %+v", r, want)
	}
}

func TestColorRange_Validate(t *testing.T) {
	tests := []struct {
		name    string
		r       ColorRange
		wantErr bool
	}{
		{"default", DefaultColorRange(), false},
		{"full range", ColorRange{0, MaxHue, 0, 255, 0, 255}, false},
		{"hue above domain", ColorRange{0, 200, 0, 255, 0, 255}, true},
		{"negative", ColorRange{-1, 10, 0, 255, 0, 255}, true},
		{"inverted", ColorRange{50, 40, 0, 255, 0, 255}, true},
		{"value above domain", ColorRange{0, 10, 0, 255, 0, 256}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.r.Validate()
			if (len(errs) > 0) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", errs, tt.wantErr)
			}
		})
	}
}

func TestScanConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*ScanConfig)
		wantErr bool
	}{
		{"default", func(*ScanConfig) {}, false},
		{"zero distance", func(c *ScanConfig) { c.ScanDistance = 0 }, true},
		{"negative area", func(c *ScanConfig) { c.AreaThreshold = -1 }, true},
		{"inverted clamp", func(c *ScanConfig) { c.YawClampLow = 90 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultScanConfig()
			tt.modify(&cfg)
			errs := cfg.Validate()
			if (len(errs) > 0) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", errs, tt.wantErr)
			}
		})
	}
}

func TestPresets_AllValid(t *testing.T) {
	for _, name := range ColorPresetNames() {
		r := GetColorPreset(name)
		if r == nil {
			t.Errorf("color preset %q missing", name)
			continue
		}
		if errs := r.Validate(); len(errs) > 0 {
			t.Errorf("color preset %q invalid: %v", name, errs)
		}
	}
	for _, name := range ScanPresetNames() {
		c := GetScanPreset(name)
		if c == nil {
			t.Errorf("scan preset %q missing", name)
			continue
		}
		if errs := c.Validate(); len(errs) > 0 {
			t.Errorf("scan preset %q invalid: %v", name, errs)
		}
	}
	if GetColorPreset("purple") != nil {
		t.Error("unknown preset should be nil")
	}
}
