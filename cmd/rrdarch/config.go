package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config is the optional rrdarch configuration file
// (~/.config/rrdarch/config.yaml). Flags always win over file values.
type Config struct {
	// Target architecture for convert when --target is not given.
	Target string `yaml:"target"`

	RRDTool string `yaml:"rrdtool"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	ServerAddress string    `yaml:"server_address"`
	MaxBodyBytes  *int64    `yaml:"max_body_bytes"`
	LogFile       string    `yaml:"log_file"`
	LogRotation   logRotate `yaml:"log_rotation"`
}

type logRotate struct {
	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxAgeDays int  `yaml:"max_age_days"`
	MaxBackups int  `yaml:"max_backups"`
	Compress   bool `yaml:"compress"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "rrdarch", "config.yaml")
}

// loadConfig reads path, or the default location when path is empty. A
// missing default file yields a zero Config; a missing explicit file is an
// error.
func loadConfig(path string, explicit bool) (Config, error) {
	if path == "" {
		path = configPath()
	}
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

func applyConvertConfig(c *cli.Command, cfg Config, target *string) {
	if cfg.Target != "" && !c.IsSet("target") {
		*target = cfg.Target
	}
}

func applySchemaConfig(c *cli.Command, cfg Config, tool *string) {
	if cfg.RRDTool != "" && !c.IsSet("rrdtool") {
		*tool = cfg.RRDTool
	}
}

func applyServeConfig(c *cli.Command, cfg Config, o *serveOptions) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		o.addr = cfg.ServerAddress
	}
	if cfg.MaxBodyBytes != nil && !c.IsSet("max-body") {
		o.maxBody = *cfg.MaxBodyBytes
	}
	if cfg.LogFile != "" && !c.IsSet("log-file") {
		o.logFile = cfg.LogFile
	}
}
