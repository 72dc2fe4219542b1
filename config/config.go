package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	ProviderGemini  = "gemini"
	ProviderOffline = "offline"

	ConverterMock   = "mock"
	ConverterStream = "stream"
)

// Server contains HTTP listener settings.
type Server struct {
	Port        int      `toml:"port"`
	GinMode     string   `toml:"gin_mode"`
	CORSOrigins []string `toml:"cors_origins"`
}

// LLM contains the prompt-completion settings used by the source prioritizer.
type LLM struct {
	Provider       string `toml:"provider"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Converter selects the resolve/convert strategy pair. The two modes are
// alternatives; nothing falls back from one to the other.
type Converter struct {
	Mode                 string  `toml:"mode"`
	YTDLPPath            string  `toml:"ytdlp_path"`
	SearchesPerSecond    float64 `toml:"searches_per_second"`
	StreamTimeoutSeconds int     `toml:"stream_timeout_seconds"`
	MaxStreamBytes       int64   `toml:"max_stream_bytes"`
}

// Harvest contains orchestration and session settings.
type Harvest struct {
	Concurrency            int   `toml:"concurrency"`
	Workers                int   `toml:"workers"`
	ZipThresholdBytes      int64 `toml:"zip_threshold_bytes"`
	ProgressIntervalMillis int   `toml:"progress_interval_ms"`
	SessionTTLMinutes      int   `toml:"session_ttl_minutes"`
}

// Logging contains logger settings.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the full service configuration.
type Config struct {
	Server    Server    `toml:"server"`
	LLM       LLM       `toml:"llm"`
	Converter Converter `toml:"converter"`
	Harvest   Harvest   `toml:"harvest"`
	Logging   Logging   `toml:"logging"`
}

// Load builds the configuration from defaults, an optional TOML file and the
// environment, in that order of precedence. It returns the resolved file path
// (empty when no file was read).
func Load(path string) (*Config, string, error) {
	cfg := Default()
	// left unset so normalize can pick gemini when a key is supplied
	cfg.LLM.Provider = ""

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", err
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, "", fmt.Errorf("parse config: %w", err)
		}
	} else {
		resolved = ""
	}

	applyEnv(&cfg)
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolved, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = os.Getenv("RETRORIFF_CONFIG")
	}
	if path == "" {
		abs, err := filepath.Abs("retroriff.toml")
		if err != nil {
			return "", false, err
		}
		path = abs
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return path, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", path)
	}
	return path, true, nil
}

func (c *Config) normalize() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.Provider == "" {
		if c.LLM.APIKey != "" {
			c.LLM.Provider = ProviderGemini
		} else {
			c.LLM.Provider = ProviderOffline
		}
	}
	c.Server.GinMode = strings.ToLower(strings.TrimSpace(c.Server.GinMode))
	c.Converter.Mode = strings.ToLower(strings.TrimSpace(c.Converter.Mode))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	origins := c.Server.CORSOrigins[:0]
	for _, o := range c.Server.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.Server.CORSOrigins = origins
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.gin_mode: unsupported value %q", c.Server.GinMode)
	}
	switch c.LLM.Provider {
	case ProviderOffline:
	case ProviderGemini:
		if c.LLM.APIKey == "" {
			return errors.New("llm.api_key is required for the gemini provider")
		}
	default:
		return fmt.Errorf("llm.provider: unsupported value %q", c.LLM.Provider)
	}
	switch c.Converter.Mode {
	case ConverterMock, ConverterStream:
	default:
		return fmt.Errorf("converter.mode: unsupported value %q", c.Converter.Mode)
	}
	if c.Converter.SearchesPerSecond <= 0 {
		return errors.New("converter.searches_per_second must be positive")
	}
	if c.Harvest.Concurrency < 1 {
		return errors.New("harvest.concurrency must be at least 1")
	}
	if c.Harvest.Workers < 1 {
		return errors.New("harvest.workers must be at least 1")
	}
	if c.Harvest.ZipThresholdBytes < 0 {
		return errors.New("harvest.zip_threshold_bytes must not be negative")
	}
	if c.Harvest.ProgressIntervalMillis <= 0 {
		return errors.New("harvest.progress_interval_ms must be positive")
	}
	return nil
}

// LLMTimeout returns the per-request model timeout.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// StreamTimeout returns the per-song download timeout.
func (c *Config) StreamTimeout() time.Duration {
	return time.Duration(c.Converter.StreamTimeoutSeconds) * time.Second
}

// ProgressInterval returns the delay between cosmetic progress stages.
func (c *Config) ProgressInterval() time.Duration {
	return time.Duration(c.Harvest.ProgressIntervalMillis) * time.Millisecond
}

// SessionTTL returns how long finished sessions are kept before expiry.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Harvest.SessionTTLMinutes) * time.Minute
}
