package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/and161185/trust-backend/internal/buildinfo"
	"github.com/and161185/trust-backend/internal/client"
	"github.com/and161185/trust-backend/internal/config"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewClientConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	defer func() { _ = cfg.Logger.Sync() }()

	buildinfo.New(buildVersion, buildDate, buildCommit).Log(cfg.Logger)
	cfg.Logger.Infow("agent config",
		"server", cfg.ServerAddr,
		"client_name", cfg.ClientName,
		"report_interval", cfg.ReportInterval,
	)

	if err := client.NewClient(cfg).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Logger.Errorw("agent stopped with error", "error", err)
		return
	}
	cfg.Logger.Info("agent stopped")
}
