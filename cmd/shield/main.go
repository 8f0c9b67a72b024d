package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/seopulse/shield/pkg/common"
	"github.com/seopulse/shield/pkg/config"
	"github.com/seopulse/shield/pkg/detect"
	handlers "github.com/seopulse/shield/pkg/handlers/http"
	"github.com/seopulse/shield/pkg/infra/alerts"
	"github.com/seopulse/shield/pkg/infra/jwt"
	infraLogger "github.com/seopulse/shield/pkg/infra/logger"
	"github.com/seopulse/shield/pkg/infra/metrics"
	"github.com/seopulse/shield/pkg/middleware"
	"github.com/seopulse/shield/pkg/monitor"
	"github.com/seopulse/shield/pkg/sanitize"
	"github.com/seopulse/shield/pkg/server"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	logger := infraLogger.NewLogger()

	if err := config.Load("./config"); err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.GetConfig()

	securityMetrics := metrics.NewSecurityMetrics(prometheus.DefaultRegisterer)

	sink := buildAlertSink(logger, securityMetrics, cfg)
	threatMonitor := monitor.New(logger, sink, securityMetrics, monitorConfig(logger, cfg))
	threatMonitor.Start()

	sweeper := monitor.NewSweeper(logger, threatMonitor, common.SweepInterval)

	sanitizer := sanitize.New()
	sanitizeOpts := sanitizerOptions(logger, cfg)
	jwtManager := jwt.NewJwtManager(&cfg.Server)

	middlewareTransport := middleware.Transport{
		AdminAuthMiddleware:       middleware.NewAdminAuthMiddleware(logger, jwtManager),
		PanicRecoverMiddleware:    middleware.NewPanicRecoverMiddleware(logger),
		SecurityHeadersMiddleware: middleware.NewSecurityHeadersMiddleware(logger, cfg.Security.Headers),
		PipelineMiddleware: middleware.NewPipelineMiddleware(
			logger,
			sanitizer,
			sanitizeOpts,
			detect.NewInjectionDetector(logger, cfg.Security.ExcludedPaths),
			detect.NewSuspiciousDetector(logger),
			threatMonitor,
			securityMetrics,
			cfg.Security.ExcludedPaths,
		),
	}

	handlerTransport := handlers.HandlerTransport{
		GetStatsHandler:  handlers.NewGetStatsHandler(logger, threatMonitor),
		CheckIPHandler:   handlers.NewCheckIPHandler(logger, threatMonitor),
		LogEventHandler:  handlers.NewLogEventHandler(logger, threatMonitor),
		CSPReportHandler: handlers.NewCSPReportHandler(logger, threatMonitor),
	}

	srv := server.NewSecurityServer(server.SecurityServerDI{
		MiddlewareTransport: middlewareTransport,
		HandlerTransport:    handlerTransport,
		Config:              cfg,
		Logger:              logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return srv.Run()
	})
	group.Go(func() error {
		return sweeper.Run(groupCtx)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		return srv.Shutdown()
	})

	if err := group.Wait(); err != nil && ctx.Err() == nil {
		logger.Fatalf("Server failed: %v", err)
	}

	threatMonitor.Stop()
	fmt.Println("server gracefully stopped")
}

func buildAlertSink(logger *logrus.Logger, m *metrics.SecurityMetrics, cfg *config.Config) alerts.Sink {
	if cfg.Security.Alerts.WebhookURL == "" {
		logger.Info("no alert webhook configured, critical alerts are log-only")
		return alerts.NewNoopSink()
	}
	timeout := time.Duration(cfg.Security.Alerts.TimeoutSeconds) * time.Second
	return alerts.NewWebhookSink(logger, m, cfg.Security.Alerts.WebhookURL, timeout)
}

func monitorConfig(logger *logrus.Logger, cfg *config.Config) monitor.Config {
	var out monitor.Config
	if err := decodeSettings(cfg.Security.Monitor, &out); err != nil {
		logger.WithError(err).Fatal("invalid monitor configuration")
	}
	return out
}

func sanitizerOptions(logger *logrus.Logger, cfg *config.Config) sanitize.Options {
	var out sanitize.Options
	if err := decodeSettings(cfg.Security.Sanitizer, &out); err != nil {
		logger.WithError(err).Fatal("invalid sanitizer configuration")
	}
	return out
}

func decodeSettings(in map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(in)
}
