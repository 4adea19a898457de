package camera

// Preset names for common configurations
const (
	PresetDefault    = "default"
	PresetLowLatency = "low-latency"
	PresetHD         = "hd"
	PresetSmooth     = "smooth"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault:    DefaultConfig(),
		PresetLowLatency: LowLatencyConfig(),
		PresetHD:         HDConfig(),
		PresetSmooth:     SmoothConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetDefault,
		PresetLowLatency,
		PresetHD,
		PresetSmooth,
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	if cfg, ok := Presets()[name]; ok {
		return &cfg
	}
	return nil
}

// HDConfig scales to 1280x720 with high quality frames for the viewer.
// Pair it with tracking.WideScanConfig.
func HDConfig() Config {
	cfg := DefaultConfig()
	cfg.Resize = true
	cfg.Width = 1280
	cfg.Height = 720
	cfg.JPEGQuality = 90
	return cfg
}

// SmoothConfig keeps the native size but runs at 30 fps.
func SmoothConfig() Config {
	cfg := DefaultConfig()
	cfg.RefreshRate = 30
	cfg.JPEGQuality = 70
	return cfg
}
