package tracking

// Color preset names
const (
	PresetGreen  = "green"
	PresetBlue   = "blue"
	PresetRed    = "red"
	PresetYellow = "yellow"
)

// Scan preset names
const (
	ScanDefault = "default"
	ScanSmall   = "small"
	ScanWide    = "wide"
)

// ColorPresets returns all available armband color ranges.
func ColorPresets() map[string]ColorRange {
	return map[string]ColorRange{
		PresetGreen:  DefaultColorRange(),
		PresetBlue:   BlueColorRange(),
		PresetRed:    RedColorRange(),
		PresetYellow: YellowColorRange(),
	}
}

// ColorPresetNames returns the color preset names in display order.
func ColorPresetNames() []string {
	return []string{PresetGreen, PresetBlue, PresetRed, PresetYellow}
}

// GetColorPreset returns a color preset by name, or nil if not found.
func GetColorPreset(name string) *ColorRange {
	if r, ok := ColorPresets()[name]; ok {
		return &r
	}
	return nil
}

// BlueColorRange matches saturated blue bands.
func BlueColorRange() ColorRange {
	return ColorRange{LowH: 100, HighH: 130, LowS: 80, HighS: 255, LowV: 50, HighV: 255}
}

// RedColorRange matches the low-hue half of red. Hue wraps at 179, so bands
// with a magenta cast may need a second range.
func RedColorRange() ColorRange {
	return ColorRange{LowH: 0, HighH: 10, LowS: 100, HighS: 255, LowV: 80, HighV: 255}
}

// YellowColorRange matches yellow and high-visibility bands.
func YellowColorRange() ColorRange {
	return ColorRange{LowH: 20, HighH: 35, LowS: 100, HighS: 255, LowV: 100, HighV: 255}
}

// ScanPresets returns all available scan configurations.
func ScanPresets() map[string]ScanConfig {
	return map[string]ScanConfig{
		ScanDefault: DefaultScanConfig(),
		ScanSmall:   SmallFrameScanConfig(),
		ScanWide:    WideScanConfig(),
	}
}

// ScanPresetNames returns the scan preset names in display order.
func ScanPresetNames() []string {
	return []string{ScanDefault, ScanSmall, ScanWide}
}

// GetScanPreset returns a scan preset by name, or nil if not found.
func GetScanPreset(name string) *ScanConfig {
	if c, ok := ScanPresets()[name]; ok {
		return &c
	}
	return nil
}

// SmallFrameScanConfig is tuned for frames resized to 320x240, where the
// band covers a quarter of the pixels it does at 640x480.
func SmallFrameScanConfig() ScanConfig {
	cfg := DefaultScanConfig()
	cfg.AreaThreshold = 2500
	cfg.ScanDistance = 100
	return cfg
}

// WideScanConfig is for 1280x720 and up, or a band held close to the camera.
func WideScanConfig() ScanConfig {
	cfg := DefaultScanConfig()
	cfg.AreaThreshold = 40000
	cfg.ScanDistance = 400
	return cfg
}
