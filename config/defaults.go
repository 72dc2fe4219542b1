package config

const (
	defaultPort                   = 8080
	defaultGinMode                = "release"
	defaultModel                  = "gemini-2.0-flash"
	defaultLLMTimeoutSeconds      = 30
	defaultConverterMode          = ConverterMock
	defaultYTDLPPath              = "yt-dlp"
	defaultSearchesPerSecond      = 2
	defaultStreamTimeoutSeconds   = 120
	defaultMaxStreamBytes         = 50 << 20
	defaultConcurrency            = 8
	defaultWorkers                = 2
	defaultZipThresholdBytes      = 10 << 20 // 10 MiB
	defaultProgressIntervalMillis = 1500
	defaultSessionTTLMinutes      = 30
	defaultLogLevel               = "info"
	defaultLogFormat              = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Port:        defaultPort,
			GinMode:     defaultGinMode,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173", "http://localhost:5174"},
		},
		LLM: LLM{
			Provider:       ProviderOffline,
			Model:          defaultModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Converter: Converter{
			Mode:                 defaultConverterMode,
			YTDLPPath:            defaultYTDLPPath,
			SearchesPerSecond:    defaultSearchesPerSecond,
			StreamTimeoutSeconds: defaultStreamTimeoutSeconds,
			MaxStreamBytes:       defaultMaxStreamBytes,
		},
		Harvest: Harvest{
			Concurrency:            defaultConcurrency,
			Workers:                defaultWorkers,
			ZipThresholdBytes:      defaultZipThresholdBytes,
			ProgressIntervalMillis: defaultProgressIntervalMillis,
			SessionTTLMinutes:      defaultSessionTTLMinutes,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
