package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Retention: RetentionConfig{
			Days: 30,
		},
		Capture: CaptureConfig{
			DenylistDomains: DefaultDenylistDomains(),
			DenylistRegex:   []string{},
		},
		Storage: StorageConfig{
			Path:          "~/.config/lookback",
			SQLiteFile:    "lookback.db",
			BusyTimeoutMS: 5000,
		},
		Server: ServerConfig{
			Host:                  "127.0.0.1",
			Port:                  8722,
			AllowedOrigins:        []string{"chrome-extension://*", "moz-extension://*"},
			RequestTimeoutSeconds: 10,
			DefaultOwner:          "local",
		},
		Logging: LoggingConfig{
			Level:       "info",
			Development: false,
			File:        "",
		},
	}
}
