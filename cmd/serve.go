package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"retroriff/config"
	"retroriff/handlers"
	"retroriff/middleware"
	"retroriff/services"
	"retroriff/web"
	"retroriff/websocket"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			return StartWebServer(cmd.Context(), cfg, ctx.configPath, ctx.logger)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port for web server mode")
	return cmd
}

// Server bundles the router with the background services it depends on
type Server struct {
	Router   *gin.Engine
	Hub      websocket.Hub
	Sessions services.SessionManager
}

// Close stops the background services
func (s *Server) Close() {
	s.Sessions.Stop()
	s.Hub.Shutdown()
}

// NewServer wires services, handlers and routes around a harvest processor
func NewServer(cfg *config.Config, configPath string, processor services.Processor, logger *zap.Logger) (*Server, error) {
	hub := websocket.NewHub(logger)
	go hub.Run()

	sessions := services.NewSessionManager(processor, hub, services.SessionOptions{
		Workers:          cfg.Harvest.Workers,
		ProgressInterval: cfg.ProgressInterval(),
		ZipThreshold:     cfg.Harvest.ZipThresholdBytes,
		TTL:              cfg.SessionTTL(),
	}, logger)
	sessions.Start()

	templates, err := web.Templates()
	if err != nil {
		sessions.Stop()
		hub.Shutdown()
		return nil, fmt.Errorf("load templates: %w", err)
	}

	// Initialize handlers
	harvestHandler := handlers.NewHarvestHandler(processor, sessions, hub, websocket.NewUpgrader(cfg.Server.CORSOrigins), logger)
	audioHandler := handlers.NewAudioHandler(sessions, services.NewAudioService(logger), logger)
	healthHandler := handlers.NewHealthHandler(cfg, sessions, hub)
	settingsHandler := handlers.NewSettingsHandler(cfg, configPath)
	uiHandler := handlers.NewUIHandler("RetroRiff Harvester")

	// Setup router
	r := gin.New()
	r.SetHTMLTemplate(templates)

	// Apply middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(middleware.Security())

	setupRoutes(r, harvestHandler, audioHandler, healthHandler, settingsHandler, uiHandler)

	return &Server{Router: r, Hub: hub, Sessions: sessions}, nil
}

// StartWebServer starts the web server and blocks until ctx is cancelled
func StartWebServer(ctx context.Context, cfg *config.Config, configPath string, logger *zap.Logger) error {
	gin.SetMode(cfg.Server.GinMode)

	processor, err := newHarvester(ctx, cfg, logger)
	if err != nil {
		return err
	}

	server, err := NewServer(cfg, configPath, processor, logger)
	if err != nil {
		return err
	}
	defer server.Close()

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           server.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("RetroRiff web server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("provider", cfg.LLM.Provider),
			zap.String("converter", cfg.Converter.Mode))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// setupRoutes configures all the HTTP routes
func setupRoutes(r *gin.Engine, harvestHandler *handlers.HarvestHandler, audioHandler *handlers.AudioHandler, healthHandler *handlers.HealthHandler, settingsHandler *handlers.SettingsHandler, uiHandler *handlers.UIHandler) {
	// Embedded UI
	r.GET("/", uiHandler.Index)

	// Health check endpoint
	r.GET("/health", healthHandler.HealthCheck)

	// API routes group
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/status", healthHandler.APIStatus)

		// Synchronous harvest
		apiGroup.POST("/process", harvestHandler.Process)

		// Harvest session endpoints
		harvestsGroup := apiGroup.Group("/harvests")
		{
			harvestsGroup.POST("", harvestHandler.CreateHarvest)
			harvestsGroup.GET("", harvestHandler.ListHarvests)
			harvestsGroup.GET("/:id", harvestHandler.GetHarvest)
			harvestsGroup.DELETE("/:id", harvestHandler.ResetHarvest)
			harvestsGroup.GET("/:id/archive", harvestHandler.DownloadArchive)

			// Single song streaming
			harvestsGroup.GET("/:id/songs/:songId/audio", audioHandler.StreamSong)
			harvestsGroup.GET("/:id/songs/:songId/metadata", audioHandler.GetMetadata)
		}

		// WebSocket endpoints for real-time progress
		wsGroup := apiGroup.Group("/ws")
		{
			wsGroup.GET("/harvests/:id", harvestHandler.HandleWebSocketConnection)
			wsGroup.GET("/harvests", harvestHandler.HandleWebSocketAllConnection)
		}

		apiGroup.GET("/settings", settingsHandler.GetSettings)
	}
}
