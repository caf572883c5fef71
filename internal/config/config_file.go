package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// serverFile is the on-disk config. Nil fields were not present in the file.
type serverFile struct {
	Address         *string `json:"address" yaml:"address"`
	DatabaseDSN     *string `json:"database_dsn" yaml:"database_dsn"`
	DatabaseName    *string `json:"database_name" yaml:"database_name"`
	CORSOrigins     *string `json:"cors_origins" yaml:"cors_origins"`
	LogLevel        *string `json:"log_level" yaml:"log_level"`
	LogFile         *string `json:"log_file" yaml:"log_file"`
	ShutdownTimeout *string `json:"shutdown_timeout" yaml:"shutdown_timeout"` // "10s"
}

// clientFile is the agent's on-disk config.
type clientFile struct {
	Address        *string `json:"address" yaml:"address"`
	ClientName     *string `json:"client_name" yaml:"client_name"`
	ReportInterval *string `json:"report_interval" yaml:"report_interval"` // "10s"
	ClientTimeout  *string `json:"client_timeout" yaml:"client_timeout"`
	LogLevel       *string `json:"log_level" yaml:"log_level"`
}

func loadServerFile(path string) (*serverFile, error) {
	var cfg serverFile
	if err := decodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadClientFile(path string) (*clientFile, error) {
	var cfg clientFile
	if err := decodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// decodeFile reads a JSON or YAML config, chosen by file extension.
func decodeFile(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, out)
	case ".json", "":
		err = json.Unmarshal(b, out)
	default:
		return fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
