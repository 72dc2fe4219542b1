package cmd

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"retroriff/config"
	"retroriff/services"
)

// newPrioritizer picks the language model backend for the configured provider
func newPrioritizer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (services.SourcePrioritizer, error) {
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		completer, err := services.NewGeminiCompleter(ctx, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLMTimeout())
		if err != nil {
			return nil, err
		}
		logger.Info("Using Gemini search strategy", zap.String("model", cfg.LLM.Model))
		return services.NewLLMPrioritizer(completer), nil
	case config.ProviderOffline:
		logger.Info("No API key configured, using offline search strategy")
		return services.HeuristicPrioritizer{}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

// newMediaPipeline pairs a resolver with its converter for the configured mode
func newMediaPipeline(cfg *config.Config, logger *zap.Logger) (services.SongResolver, services.AudioConverter, error) {
	switch cfg.Converter.Mode {
	case config.ConverterMock:
		return services.NewMockResolver(logger), services.NewPlaceholderConverter(logger), nil
	case config.ConverterStream:
		client := &http.Client{Timeout: cfg.StreamTimeout()}
		resolver := services.NewYTDLPResolver(cfg.Converter.YTDLPPath, cfg.Converter.SearchesPerSecond, logger)
		return resolver, services.NewStreamConverter(client, cfg.Converter.MaxStreamBytes, logger), nil
	default:
		return nil, nil, fmt.Errorf("unknown converter mode %q", cfg.Converter.Mode)
	}
}

// newHarvester wires the full harvest pipeline from configuration
func newHarvester(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*services.Harvester, error) {
	prioritizer, err := newPrioritizer(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init prioritizer: %w", err)
	}
	resolver, converter, err := newMediaPipeline(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init converter: %w", err)
	}
	return services.NewHarvester(prioritizer, resolver, converter, cfg.Harvest.Concurrency, logger), nil
}
