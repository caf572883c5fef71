// Package client talks to the trust backend HTTP API.
package client

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/and161185/trust-backend/internal/config"
	"github.com/and161185/trust-backend/model"
	"go.uber.org/zap"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("unexpected status: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status: %d: %s", e.StatusCode, e.Detail)
}

// Client is a typed wrapper over the /api routes.
type Client struct {
	config     *config.ClientConfig
	httpClient *http.Client
	logger     *zap.SugaredLogger
	realIP     string
}

// NewClient creates a client with an http.Client built from cfg.
func NewClient(cfg *config.ClientConfig) *Client {
	return NewClientWithHTTP(cfg, NewHTTPClient(cfg))
}

// DI: ready http.Client
func NewClientWithHTTP(cfg *config.ClientConfig, hc *http.Client) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Client{config: cfg, httpClient: hc, logger: logger, realIP: detectOutboundIP()}
}

// fabric http-client
func NewHTTPClient(cfg *config.ClientConfig) *http.Client {
	return &http.Client{Timeout: cfg.ClientTimeout}
}

func detectOutboundIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return ""
	}
	defer conn.Close()
	if la, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return la.IP.String()
	}
	return ""
}

// CreateStatusCheck reports clientName to the server and returns the stored record.
func (clnt *Client) CreateStatusCheck(ctx context.Context, clientName string) (model.StatusCheck, error) {
	var check model.StatusCheck
	body := model.StatusCheckCreate{ClientName: &clientName}
	if err := clnt.postGzipJSON(ctx, "/api/status", body, http.StatusCreated, &check); err != nil {
		return model.StatusCheck{}, err
	}
	return check, nil
}

// ListStatusChecks returns the status checks the server holds, up to its list limit.
func (clnt *Client) ListStatusChecks(ctx context.Context) ([]model.StatusCheck, error) {
	var checks []model.StatusCheck
	if err := clnt.getJSON(ctx, "/api/status", &checks); err != nil {
		return nil, err
	}
	return checks, nil
}

// TrustMetrics fetches the trust metrics document.
func (clnt *Client) TrustMetrics(ctx context.Context) (model.TrustMetrics, error) {
	var doc model.TrustMetrics
	if err := clnt.getJSON(ctx, "/api/metrics", &doc); err != nil {
		return model.TrustMetrics{}, err
	}
	return doc, nil
}

// Ping returns nil when the server and its record store are reachable.
func (clnt *Client) Ping(ctx context.Context) error {
	resp, err := clnt.do(ctx, http.MethodGet, "/api/ping", nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode}
	}
	return nil
}

// Run reports a status check every ReportInterval until ctx is done.
// A failed report is logged and the next tick tries again.
func (clnt *Client) Run(ctx context.Context) error {
	interval := clnt.config.ReportInterval
	if interval <= 0 {
		return errors.New("report interval must be positive")
	}

	clnt.report(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		case <-t.C:
			clnt.report(ctx)
		}
	}
}

func (clnt *Client) report(ctx context.Context) {
	reqCtx, cancel := context.WithTimeout(ctx, clnt.config.ClientTimeout)
	defer cancel()

	check, err := clnt.CreateStatusCheck(reqCtx, clnt.config.ClientName)
	if err != nil {
		if ctx.Err() == nil {
			clnt.logger.Errorw("failed to report status", "error", err)
		}
		return
	}
	clnt.logger.Debugw("status reported", "id", check.ID, "client_name", check.ClientName)
}

func (clnt *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := clnt.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, http.StatusOK, out)
}

func (clnt *Client) postGzipJSON(ctx context.Context, path string, payload any, want int, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	var body bytes.Buffer
	zw := gzip.NewWriter(&body)
	if _, err = zw.Write(raw); err != nil {
		return fmt.Errorf("gzip write: %w", err)
	}
	if err = zw.Close(); err != nil {
		return fmt.Errorf("gzip close: %w", err)
	}

	headers := map[string]string{
		"Content-Type":     "application/json",
		"Content-Encoding": "gzip",
	}
	resp, err := clnt.do(ctx, http.MethodPost, path, &body, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, want, out)
}

func (clnt *Client) do(ctx context.Context, method, path string, body io.Reader, headers map[string]string) (*http.Response, error) {
	url := strings.TrimRight(clnt.config.ServerAddr, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept-Encoding", "gzip")
	if clnt.realIP != "" {
		req.Header.Set("X-Real-IP", clnt.realIP)
	}

	resp, err := clnt.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	return resp, nil
}

// decodeResponse checks the status and decodes a possibly gzipped JSON body into out.
func decodeResponse(resp *http.Response, want int, out any) error {
	var r io.Reader = resp.Body
	// an explicit Accept-Encoding turns off the transport's transparent gunzip
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("gzip reader: %w", err)
		}
		defer gr.Close()
		r = gr
	}

	if resp.StatusCode != want {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var e struct {
			Detail string `json:"detail"`
		}
		if json.NewDecoder(r).Decode(&e) == nil {
			apiErr.Detail = e.Detail
		}
		return apiErr
	}

	if err := json.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
