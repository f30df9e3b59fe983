package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/rrdarch/internal/logger"
)

var (
	logLevel   string
	logFormat  string
	debug      bool
	configFile string
)

// stdout is a seam for tests.
var stdout io.Writer = os.Stdout

func rootFlags() []cli.Flag {
	return append(loggingFlags(), &cli.StringFlag{
		Name:        "config",
		Usage:       "path to config.yaml (default: $XDG_CONFIG_HOME/rrdarch/config.yaml)",
		Sources:     cli.EnvVars("RRDARCH_CONFIG"),
		Destination: &configFile,
	})
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

// session is what the root Before hook resolves for every command.
type session struct {
	cfg    Config
	level  slog.Level
	format logger.Format
}

type sessionKey struct{}

func sessionFrom(ctx context.Context) session {
	if s, ok := ctx.Value(sessionKey{}).(session); ok {
		return s
	}
	return session{level: slog.LevelInfo, format: logger.FormatPretty}
}

// setup loads the config file and installs the logger.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := loadConfig(configFile, cmd.IsSet("config"))
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	applyLoggingConfig(cmd, cfg)

	format, err := logger.ParseFormat(logFormat)
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	level := logger.ParseLevel(logLevel)
	if debug {
		level = slog.LevelDebug
	}

	ctx = context.WithValue(ctx, sessionKey{}, session{cfg: cfg, level: level, format: format})
	return logger.WithContext(ctx, logger.Build(os.Stderr, format, level)), nil
}
