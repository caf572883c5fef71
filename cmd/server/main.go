package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/and161185/trust-backend/internal/buildinfo"
	"github.com/and161185/trust-backend/internal/config"
	"github.com/and161185/trust-backend/internal/server"
	"github.com/and161185/trust-backend/storage/backend"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewServerConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	defer func() { _ = cfg.Logger.Sync() }()

	buildinfo.New(buildVersion, buildDate, buildCommit).Log(cfg.Logger)

	storage, kind, err := backend.Open(ctx, cfg.DatabaseDsn, cfg.DatabaseName)
	if err != nil {
		cfg.Logger.Fatal(err)
	}
	defer func() {
		// the signal context is already done here
		if err := storage.Close(context.Background()); err != nil {
			cfg.Logger.Errorw("failed to close storage", "error", err)
		}
	}()

	cfg.Logger.Infow("server config",
		"addr", cfg.Addr,
		"storage", kind,
		"database", cfg.DatabaseName,
		"cors_origins", cfg.CORSOrigins,
	)

	srv := server.NewServer(storage, cfg)
	if err := srv.Run(ctx); err != nil {
		cfg.Logger.Errorw("server stopped with error", "error", err)
		return
	}
	cfg.Logger.Info("server stopped")
}
