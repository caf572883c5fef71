package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	defaultServerAddr     = "http://localhost:8080"
	defaultReportInterval = 10 * time.Second
	defaultClientTimeout  = 5 * time.Second
)

// ClientConfig holds the configuration settings for the agent.
type ClientConfig struct {
	ServerAddr     string // Server base URL, always with a scheme
	ClientName     string // Name sent with every status check
	ReportInterval time.Duration
	ClientTimeout  time.Duration // Per-request timeout
	LogLevel       string
	Logger         *zap.SugaredLogger
}

// NewClientConfig builds the agent config from .env, the command line and the environment.
func NewClientConfig() (*ClientConfig, error) {
	return LoadClient(flag.CommandLine, os.Args[1:])
}

// LoadClient resolves the agent config with the same precedence as Load.
func LoadClient(fset *flag.FlagSet, args []string) (*ClientConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &ClientConfig{
		ServerAddr:     defaultServerAddr,
		ClientName:     defaultClientName(),
		ReportInterval: defaultReportInterval,
		ClientTimeout:  defaultClientTimeout,
		LogLevel:       defaultLogLevel,
	}

	fAddr := strFlag{v: cfg.ServerAddr}
	fName := strFlag{v: cfg.ClientName}
	fLevel := strFlag{v: cfg.LogLevel}
	fRep := durationFlag{v: cfg.ReportInterval}
	fTO := durationFlag{v: cfg.ClientTimeout}
	var fConf strFlag
	fset.Var(&fAddr, "a", "HTTP server address")
	fset.Var(&fName, "n", "client name reported with status checks")
	fset.Var(&fRep, "r", "report interval")
	fset.Var(&fTO, "t", "client timeout")
	fset.Var(&fLevel, "log-level", "log level")
	fset.Var(&fConf, "c", "path to JSON or YAML config file")
	fset.Var(&fConf, "config", "path to JSON or YAML config file (alias)")
	if err := fset.Parse(args); err != nil {
		return nil, err
	}

	cfg.ServerAddr = fAddr.v
	cfg.ClientName = fName.v
	cfg.ReportInterval = fRep.v
	cfg.ClientTimeout = fTO.v
	cfg.LogLevel = fLevel.v

	if fConf.v == "" {
		fConf.v = os.Getenv("CONFIG")
	}
	if fConf.v != "" {
		file, err := loadClientFile(fConf.v)
		if err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if file.Address != nil && !fAddr.set {
			cfg.ServerAddr = *file.Address
		}
		if file.ClientName != nil && !fName.set {
			cfg.ClientName = *file.ClientName
		}
		if file.LogLevel != nil && !fLevel.set {
			cfg.LogLevel = *file.LogLevel
		}
		if file.ReportInterval != nil && !fRep.set {
			if cfg.ReportInterval, err = time.ParseDuration(*file.ReportInterval); err != nil {
				return nil, fmt.Errorf("config file report_interval: %w", err)
			}
		}
		if file.ClientTimeout != nil && !fTO.set {
			if cfg.ClientTimeout, err = time.ParseDuration(*file.ClientTimeout); err != nil {
				return nil, fmt.Errorf("config file client_timeout: %w", err)
			}
		}
	}

	if err := readClientEnvironment(cfg); err != nil {
		return nil, err
	}

	// normalize address
	if !strings.HasPrefix(cfg.ServerAddr, "http://") && !strings.HasPrefix(cfg.ServerAddr, "https://") {
		cfg.ServerAddr = "http://" + cfg.ServerAddr
	}

	logger, err := buildLogger(cfg.LogLevel, "")
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	cfg.Logger = logger.Sugar()

	return cfg, nil
}

func readClientEnvironment(cfg *ClientConfig) error {
	if addr := os.Getenv("ADDRESS"); addr != "" {
		cfg.ServerAddr = addr
	}

	if name := os.Getenv("CLIENT_NAME"); name != "" {
		cfg.ClientName = name
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	if v := os.Getenv("REPORT_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid REPORT_INTERVAL env var: %w", err)
		}
		cfg.ReportInterval = d
	}

	if v := os.Getenv("CLIENT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CLIENT_TIMEOUT env var: %w", err)
		}
		cfg.ClientTimeout = d
	}

	return nil
}

func defaultClientName() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "agent"
}
