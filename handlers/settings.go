package handlers

import (
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"retroriff/config"
)

// SettingsHandler handles settings-related endpoints
type SettingsHandler struct {
	cfg        *config.Config
	configPath string
}

// NewSettingsHandler creates a new settings handler. configPath is the file the
// configuration was read from, empty when none.
func NewSettingsHandler(cfg *config.Config, configPath string) *SettingsHandler {
	return &SettingsHandler{cfg: cfg, configPath: configPath}
}

// Settings is the effective configuration without secrets
type Settings struct {
	ConfigFile             string   `json:"configFile,omitempty"`
	Port                   int      `json:"port"`
	CORSOrigins            []string `json:"corsOrigins"`
	LLMProvider            string   `json:"llmProvider"`
	LLMModel               string   `json:"llmModel"`
	APIKeyConfigured       bool     `json:"apiKeyConfigured"`
	ConverterMode          string   `json:"converterMode"`
	SearchesPerSecond      float64  `json:"searchesPerSecond"`
	MaxStreamSize          string   `json:"maxStreamSize"`
	Concurrency            int      `json:"concurrency"`
	Workers                int      `json:"workers"`
	ZipThresholdBytes      int64    `json:"zipThresholdBytes"`
	ZipThreshold           string   `json:"zipThreshold"`
	ProgressIntervalMillis int      `json:"progressIntervalMs"`
	SessionTTLMinutes      int      `json:"sessionTtlMinutes"`
	LogLevel               string   `json:"logLevel"`
}

// CurrentSettings projects the configuration into Settings
func CurrentSettings(cfg *config.Config, configPath string) Settings {
	return Settings{
		ConfigFile:             configPath,
		Port:                   cfg.Server.Port,
		CORSOrigins:            cfg.Server.CORSOrigins,
		LLMProvider:            cfg.LLM.Provider,
		LLMModel:               cfg.LLM.Model,
		APIKeyConfigured:       cfg.LLM.APIKey != "",
		ConverterMode:          cfg.Converter.Mode,
		SearchesPerSecond:      cfg.Converter.SearchesPerSecond,
		MaxStreamSize:          humanize.IBytes(uint64(cfg.Converter.MaxStreamBytes)),
		Concurrency:            cfg.Harvest.Concurrency,
		Workers:                cfg.Harvest.Workers,
		ZipThresholdBytes:      cfg.Harvest.ZipThresholdBytes,
		ZipThreshold:           humanize.IBytes(uint64(cfg.Harvest.ZipThresholdBytes)),
		ProgressIntervalMillis: cfg.Harvest.ProgressIntervalMillis,
		SessionTTLMinutes:      cfg.Harvest.SessionTTLMinutes,
		LogLevel:               cfg.Logging.Level,
	}
}

// GetSettings returns the current settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, CurrentSettings(h.cfg, h.configPath))
}
