package config

import (
	"os"
	"strconv"
	"strings"
)

// applyEnv overrides file values with environment variables
func applyEnv(cfg *Config) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		cfg.Server.GinMode = mode
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.Server.CORSOrigins = strings.Split(origins, ",")
	}

	// GEMINI_API_KEY wins over GOOGLE_API_KEY, matching the genai client lookup
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if provider := os.Getenv("RETRORIFF_LLM_PROVIDER"); provider != "" {
		cfg.LLM.Provider = provider
	}
	if model := os.Getenv("RETRORIFF_MODEL"); model != "" {
		cfg.LLM.Model = model
	}
	if mode := os.Getenv("RETRORIFF_CONVERTER"); mode != "" {
		cfg.Converter.Mode = mode
	}
	if path := os.Getenv("RETRORIFF_YTDLP_PATH"); path != "" {
		cfg.Converter.YTDLPPath = path
	}
	if level := os.Getenv("RETRORIFF_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
