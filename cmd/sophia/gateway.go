package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sophia-platform/sophia/internal/config"
	"github.com/sophia-platform/sophia/internal/gateway"
	"github.com/sophia-platform/sophia/internal/gateway/cli"
	"github.com/sophia-platform/sophia/internal/gateway/httpapi"
	"github.com/sophia-platform/sophia/internal/gateway/ws"
	"github.com/sophia-platform/sophia/internal/notification"
	"github.com/sophia-platform/sophia/internal/ratelimit"
	"github.com/sophia-platform/sophia/internal/scheduler"
	goutils "github.com/jkaninda/go-utils"
)

var (
	gatewayConfigPath string
	gatewayPort       string
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start in gateway mode (HTTP, WebSocket, CLI)",
	RunE:  runGateway,
}

func init() {
	// Register flags on both root and gateway so that
	// `sophia --config path` and `sophia gateway --config path` both work.
	for _, cmd := range []*cobra.Command{rootCmd, gatewayCmd} {
		cmd.Flags().StringVar(&gatewayConfigPath, "config", config.DefaultConfigPath(), "path to config file")
		cmd.Flags().StringVar(&gatewayPort, "port", "", "override HTTP listen port (e.g. :8080)")
	}
}

// runGateway starts Sophia in gateway mode.
func runGateway(_ *cobra.Command, _ []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.LoadOrDefault(goutils.Env("SOPHIA_CONFIG", gatewayConfigPath))
	if err != nil {
		return err
	}

	// Apply CLI overrides.
	if gatewayPort != "" {
		if cfg.Gateways.HTTP == nil {
			cfg.Gateways.HTTP = &config.HTTPGatewayConfig{Enabled: true}
		}
		cfg.Gateways.HTTP.ListenAddr = gatewayPort
	}

	logger.Info("starting in gateway mode", slog.String("config", gatewayConfigPath))

	sc, err := initShared(cfg, logger)
	if err != nil {
		return err
	}
	defer sc.Cleanup()

	// Signal-aware context.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Daily digest scheduler (optional).
	if cfg.DailyDigest != nil && cfg.DailyDigest.Enabled {
		var schedMetrics *scheduler.Metrics
		if sc.Obs != nil && sc.Obs.Metrics != nil {
			schedMetrics = scheduler.NewMetrics(sc.Obs.Metrics.Registry)
		}

		digestScheduler, err := scheduler.New(sc.Engine, schedMetrics, sc.Logger, cfg.DailyDigest)
		if err != nil {
			return fmt.Errorf("initializing digest scheduler: %w", err)
		}
		if cfg.DailyDigest.WebhookURL != "" {
			digestScheduler.WithNotifier(notification.NewWebhookNotifier(cfg.DailyDigest.WebhookURL, sc.Logger))
		}
		cancelScheduler := digestScheduler.Start(ctx)
		defer cancelScheduler()

		logger.Debug("daily digest scheduler initialized",
			slog.String("schedule", cfg.DailyDigest.CronSchedule()),
			slog.Int("seekers", len(cfg.DailyDigest.Seekers)),
		)
	}

	// Build enabled gateways.
	gateways := buildGateways(cfg, sc)
	if len(gateways) == 0 {
		return fmt.Errorf("no gateways enabled in config")
	}
	logger.Info("gateways configured", slog.Int("count", len(gateways)))

	// Start all gateways in goroutines.
	errs := make(chan error, len(gateways))
	for _, gw := range gateways {
		go func(g gateway.Gateway) {
			errs <- g.Start(ctx)
		}(gw)
	}

	// Wait for signal or first gateway error.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errs:
		if err != nil {
			logger.Error("gateway exited with error", slog.String("error", err.Error()))
		}
	}

	// Graceful shutdown with deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for i := len(gateways) - 1; i >= 0; i-- {
		if err := gateways[i].Stop(shutdownCtx); err != nil {
			logger.Error("stopping gateway", slog.String("error", err.Error()))
		}
	}

	return nil
}

// buildGateways creates all enabled gateways from config.
func buildGateways(cfg *config.Config, sc *SharedComponents) []gateway.Gateway {
	var gws []gateway.Gateway
	gwCfg := cfg.Gateways

	// Default to HTTP if no gateways section configured.
	if gwCfg.HTTP == nil && gwCfg.CLI == nil {
		gwCfg.HTTP = &config.HTTPGatewayConfig{Enabled: true}
		sc.Logger.Debug("gateway defaulted", slog.String("type", "http"))
	}

	// CLI gateway.
	if gwCfg.CLI != nil && gwCfg.CLI.Enabled {
		gws = append(gws, cli.NewGateway(sc.Engine, sc.Logger))
		sc.Logger.Debug("gateway enabled", slog.String("type", "cli"))
	}

	// HTTP API gateway.
	if gwCfg.HTTP != nil && gwCfg.HTTP.Enabled {
		limiter := ratelimit.New(ratelimit.Config{
			RequestsPerMinute: gwCfg.HTTP.RateLimit.RequestsPerMinute,
			BurstSize:         gwCfg.HTTP.RateLimit.BurstSize,
		})

		// Build API key → seeker ID mapping from config + env override.
		apiKeys := gwCfg.HTTP.APIKeySeekerMapping
		if apiKeys == nil {
			apiKeys = make(map[string]string)
		}
		if envKeys := os.Getenv("SOPHIA_API_KEYS"); envKeys != "" {
			for _, entry := range strings.Split(envKeys, ",") {
				parts := strings.SplitN(strings.TrimSpace(entry), ":", 2)
				if len(parts) == 2 {
					apiKeys[parts[0]] = parts[1]
				}
			}
		}

		httpCfg := httpapi.Config{
			ListenAddr:     gwCfg.HTTP.Addr(),
			EnableDocs:     gwCfg.HTTP.EnableDocs,
			APIKeys:        apiKeys,
			MaxRequestSize: gwCfg.HTTP.MaxRequestSizeBytes,
		}
		if sc.Obs != nil {
			httpCfg.Metrics = sc.Obs.Metrics
			httpCfg.HealthChecker = sc.Obs.Health
			if sc.Obs.Metrics != nil {
				httpCfg.MetricsRegistry = sc.Obs.Metrics.Registry
			}
			if sc.Obs.Tracer != nil {
				httpCfg.Tracer = sc.Obs.Tracer.Tracer()
			}
			if cfg.Observability != nil {
				httpCfg.MetricsPath = cfg.Observability.Metrics.MetricsPath()
			}
		}
		httpGW := httpapi.NewGateway(httpCfg, sc.Engine, limiter, sc.Logger)

		// Mount the WebSocket meditation stream on the HTTP gateway.
		if gwCfg.HTTP.Meditation {
			wsServer := ws.NewServer(sc.Engine, ws.Config{APIKeys: apiKeys}, sc.Logger)
			httpGW.WithHandler("/ws/meditation", wsServer.Handler())
			sc.Logger.Debug("meditation stream mounted",
				slog.String("path", "/ws/meditation"),
			)
		}

		gws = append(gws, httpGW)
		sc.Logger.Debug("gateway enabled",
			slog.String("type", "http"),
			slog.String("addr", gwCfg.HTTP.Addr()),
			slog.Bool("meditation_stream", gwCfg.HTTP.Meditation),
		)
	}

	return gws
}
