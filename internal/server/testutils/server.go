// Package testutils builds servers backed by in-memory storage for tests.
package testutils

import (
	"context"

	"github.com/and161185/trust-backend/internal/config"
	"github.com/and161185/trust-backend/internal/server"
	"github.com/and161185/trust-backend/storage/inmemory"
	"go.uber.org/zap"
)

func NewTestServer(ctx context.Context) *server.Server {
	return server.NewServer(inmemory.NewMemStorage(ctx), &config.ServerConfig{
		Addr:        "127.0.0.1:0",
		CORSOrigins: []string{"*"},
		Logger:      zap.NewNop().Sugar(),
	})
}
