// Package config provides application configuration structures and helpers.
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
	defaultAddr            = "localhost:8080"
	defaultDatabaseName    = "trust"
	defaultCORSOrigins     = "*"
	defaultLogLevel        = "info"
	defaultShutdownTimeout = 10 * time.Second
)

// ServerConfig holds the configuration settings for the server.
type ServerConfig struct {
	Addr            string // Server address
	Logger          *zap.SugaredLogger
	DatabaseDsn     string        // Record store connection string; empty means in-memory
	DatabaseName    string        // Database name for stores that host several (mongo)
	CORSOrigins     []string      // Allowed origins, "*" for any
	LogLevel        string        // zap level name
	LogFile         string        // Extra log output path besides stdout
	ShutdownTimeout time.Duration // Grace period for in-flight requests on shutdown
}

// NewServerConfig builds the config from .env, the command line and the environment.
func NewServerConfig() (*ServerConfig, error) {
	return Load(flag.CommandLine, os.Args[1:])
}

// Load resolves the config with precedence env > flags > config file > defaults.
// A .env file in the working directory is read first; it never overrides
// variables already set in the environment.
func Load(fset *flag.FlagSet, args []string) (*ServerConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	// 0) defaults
	cfg := &ServerConfig{
		Addr:            defaultAddr,
		DatabaseName:    defaultDatabaseName,
		CORSOrigins:     splitOrigins(defaultCORSOrigins),
		LogLevel:        defaultLogLevel,
		ShutdownTimeout: defaultShutdownTimeout,
	}

	// 1) flags
	fAddr := strFlag{v: cfg.Addr}
	fName := strFlag{v: cfg.DatabaseName}
	fCORS := strFlag{v: defaultCORSOrigins}
	fLevel := strFlag{v: cfg.LogLevel}
	fShutdown := durationFlag{v: cfg.ShutdownTimeout}
	var fDSN, fLogFile, fConf strFlag

	fset.Var(&fAddr, "a", "HTTP server address")
	fset.Var(&fDSN, "d", "record store connection string")
	fset.Var(&fName, "n", "database name")
	fset.Var(&fCORS, "cors", "comma-separated allowed CORS origins")
	fset.Var(&fLevel, "log-level", "log level")
	fset.Var(&fLogFile, "log-file", "additional log file path")
	fset.Var(&fShutdown, "shutdown-timeout", "graceful shutdown timeout")
	fset.Var(&fConf, "c", "path to JSON or YAML config file")
	fset.Var(&fConf, "config", "path to JSON or YAML config file (alias)")
	if err := fset.Parse(args); err != nil {
		return nil, err
	}

	cfg.Addr = fAddr.v
	cfg.DatabaseDsn = fDSN.v
	cfg.DatabaseName = fName.v
	cfg.CORSOrigins = splitOrigins(fCORS.v)
	cfg.LogLevel = fLevel.v
	cfg.LogFile = fLogFile.v
	cfg.ShutdownTimeout = fShutdown.v

	// 2) config file fills whatever flags did not set
	if fConf.v == "" {
		fConf.v = os.Getenv("CONFIG")
	}
	if fConf.v != "" {
		file, err := loadServerFile(fConf.v)
		if err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if err := applyFile(cfg, file, fileOverrides{
			addr: !fAddr.set, dsn: !fDSN.set, name: !fName.set, cors: !fCORS.set,
			level: !fLevel.set, logFile: !fLogFile.set, shutdown: !fShutdown.set,
		}); err != nil {
			return nil, err
		}
	}

	// 3) environment
	if err := readServerEnvironment(cfg); err != nil {
		return nil, err
	}

	logger, err := buildLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	cfg.Logger = logger.Sugar()

	return cfg, nil
}

type fileOverrides struct {
	addr, dsn, name, cors, level, logFile, shutdown bool
}

func applyFile(cfg *ServerConfig, file *serverFile, can fileOverrides) error {
	if file.Address != nil && can.addr {
		cfg.Addr = *file.Address
	}
	if file.DatabaseDSN != nil && can.dsn {
		cfg.DatabaseDsn = *file.DatabaseDSN
	}
	if file.DatabaseName != nil && can.name {
		cfg.DatabaseName = *file.DatabaseName
	}
	if file.CORSOrigins != nil && can.cors {
		cfg.CORSOrigins = splitOrigins(*file.CORSOrigins)
	}
	if file.LogLevel != nil && can.level {
		cfg.LogLevel = *file.LogLevel
	}
	if file.LogFile != nil && can.logFile {
		cfg.LogFile = *file.LogFile
	}
	if file.ShutdownTimeout != nil && can.shutdown {
		d, err := time.ParseDuration(*file.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("config file shutdown_timeout: %w", err)
		}
		cfg.ShutdownTimeout = d
	}
	return nil
}

func readServerEnvironment(cfg *ServerConfig) error {
	if addr := os.Getenv("ADDRESS"); addr != "" {
		cfg.Addr = addr
	}

	// MONGO_URL is kept for deployments that predate DATABASE_DSN
	if dsn := os.Getenv("MONGO_URL"); dsn != "" {
		cfg.DatabaseDsn = dsn
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.DatabaseDsn = dsn
	}

	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.DatabaseName = name
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitOrigins(origins)
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	if file := os.Getenv("LOG_FILE"); file != "" {
		cfg.LogFile = file
	}

	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SHUTDOWN_TIMEOUT env var: %w", err)
		}
		cfg.ShutdownTimeout = d
	}

	return nil
}

func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func buildLogger(level, file string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}

	logCfg := zap.NewProductionConfig()
	logCfg.Level = lvl
	logCfg.OutputPaths = []string{"stdout"}
	if file != "" {
		logCfg.OutputPaths = append(logCfg.OutputPaths, file)
	}
	return logCfg.Build()
}
