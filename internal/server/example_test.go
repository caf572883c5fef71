package server_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/and161185/trust-backend/internal/config"
	"github.com/and161185/trust-backend/internal/server"
	"github.com/and161185/trust-backend/storage/inmemory"
)

func ExampleServer_RootHandler() {
	srv := server.NewServer(inmemory.NewMemStorage(context.Background()), &config.ServerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/", nil)
	w := httptest.NewRecorder()
	srv.RootHandler(w, req)

	fmt.Println(w.Code, strings.TrimSpace(w.Body.String()))
	// Output: 200 {"message":"Hello World"}
}

func ExampleServer_CreateStatusCheckHandler() {
	srv := server.NewServer(inmemory.NewMemStorage(context.Background()), &config.ServerConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/status", strings.NewReader(`{"client_name":"acme"}`))
	w := httptest.NewRecorder()
	srv.CreateStatusCheckHandler(w, req)

	fmt.Println(w.Code)
	// Output: 201
}

func ExampleServer_TrustMetricsHandler() {
	srv := server.NewServer(inmemory.NewMemStorage(context.Background()), &config.ServerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	w := httptest.NewRecorder()
	srv.TrustMetricsHandler(w, req)

	fmt.Println(w.Code)
	// Output: 200
}
