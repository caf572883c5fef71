package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var clientEnvKeys = []string{
	"ADDRESS", "CLIENT_NAME", "REPORT_INTERVAL", "CLIENT_TIMEOUT", "LOG_LEVEL", "CONFIG",
}

func clearClientEnv(t *testing.T) {
	t.Helper()
	for _, k := range clientEnvKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func loadClient(t *testing.T, args ...string) *ClientConfig {
	t.Helper()
	cfg, err := LoadClient(flag.NewFlagSet("test", flag.ContinueOnError), args)
	require.NoError(t, err)
	return cfg
}

func TestLoadClient_Defaults(t *testing.T) {
	clearClientEnv(t)
	t.Chdir(t.TempDir())

	cfg := loadClient(t)
	require.Equal(t, "http://localhost:8080", cfg.ServerAddr)
	require.NotEmpty(t, cfg.ClientName)
	require.Equal(t, 10*time.Second, cfg.ReportInterval)
	require.Equal(t, 5*time.Second, cfg.ClientTimeout)
	require.NotNil(t, cfg.Logger)
}

func TestLoadClient_AddsHTTPPrefix(t *testing.T) {
	clearClientEnv(t)
	t.Chdir(t.TempDir())

	cfg := loadClient(t, "-a", "example.com:9090")
	require.Equal(t, "http://example.com:9090", cfg.ServerAddr)

	cfg = loadClient(t, "-a", "https://example.com")
	require.Equal(t, "https://example.com", cfg.ServerAddr)
}

func TestLoadClient_EnvOverridesFlags(t *testing.T) {
	clearClientEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("CLIENT_NAME", "from-env")
	t.Setenv("REPORT_INTERVAL", "3s")

	cfg := loadClient(t, "-n", "from-flag", "-r", "1m", "-t", "2s")
	require.Equal(t, "from-env", cfg.ClientName)
	require.Equal(t, 3*time.Second, cfg.ReportInterval)
	require.Equal(t, 2*time.Second, cfg.ClientTimeout)
}

func TestLoadClient_FileFillsUnsetFlags(t *testing.T) {
	clearClientEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"address: backend:8000\nclient_name: from-file\nreport_interval: 30s\n"), 0o600))

	cfg := loadClient(t, "-c", path, "-n", "from-flag")
	require.Equal(t, "http://backend:8000", cfg.ServerAddr)
	require.Equal(t, "from-flag", cfg.ClientName)
	require.Equal(t, 30*time.Second, cfg.ReportInterval)
}

func TestLoadClient_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{name: "bad report interval env", env: map[string]string{"REPORT_INTERVAL": "soon"}},
		{name: "bad client timeout env", env: map[string]string{"CLIENT_TIMEOUT": "10"}},
		{name: "bad duration flag", args: []string{"-r", "x"}},
		{name: "missing config file", args: []string{"-c", "/nonexistent/agent.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearClientEnv(t)
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadClient(flag.NewFlagSet("test", flag.ContinueOnError), tt.args)
			require.Error(t, err)
		})
	}
}
