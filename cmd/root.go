package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"retroriff/config"
	"retroriff/logging"
)

// commandContext carries the lazily loaded configuration and logger
type commandContext struct {
	configFlag string

	cfg        *config.Config
	configPath string
	logger     *zap.Logger
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, path, err := config.Load(c.configFlag)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	c.cfg, c.configPath, c.logger = cfg, path, logger
	if path != "" {
		logger.Debug("Loaded configuration", zap.String("path", path))
	}
	return cfg, nil
}

// NewRootCommand builds the retroriff command tree
func NewRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "retroriff",
		Short:         "RetroRiff Harvester",
		Long:          "Harvest a playlist of classic riffs from artist, genre and year hints.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd == cmd.Root() {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if ctx.logger != nil {
				_ = ctx.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newHarvestCommand(ctx))

	return rootCmd
}

// Execute runs the root command until completion or an interrupt
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}
