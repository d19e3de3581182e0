package config

const (
	defaultExportMode  = "default"
	defaultImageFormat = "png"
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Export: Export{
			Mode:        defaultExportMode,
			ImageFormat: defaultImageFormat,
			Reflection:  true,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
