package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/samcharles93/rrdarch/internal/api"
	"github.com/samcharles93/rrdarch/internal/logger"
	"github.com/samcharles93/rrdarch/internal/version"
)

type serveOptions struct {
	addr        string
	maxBody     int64
	logFile     string
	history     int64
	readTimeout time.Duration
}

func serveFlags(o *serveOptions) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "listen address",
			Value:       "127.0.0.1:8080",
			Destination: &o.addr,
		},
		&cli.Int64Flag{
			Name:        "max-body",
			Usage:       "largest accepted RRD upload in bytes",
			Value:       api.DefaultMaxBodyBytes,
			Destination: &o.maxBody,
		},
		&cli.StringFlag{
			Name:        "log-file",
			Usage:       "write JSON logs to this size-rotated file instead of stderr",
			Destination: &o.logFile,
		},
		&cli.Int64Flag{
			Name:        "history",
			Usage:       "number of conversion records kept for /v1/conversions",
			Value:       256,
			Destination: &o.history,
		},
		&cli.DurationFlag{
			Name:        "read-timeout",
			Usage:       "HTTP read header timeout",
			Value:       30 * time.Second,
			Destination: &o.readTimeout,
		},
	}
}

func serveCmd() *cli.Command {
	var o serveOptions

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve convert and inspect over HTTP",
		Flags: serveFlags(&o),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s := sessionFrom(ctx)
			applyServeConfig(cmd, s.cfg, &o)

			log, closeLog := serveLogger(logger.FromContext(ctx), s, o.logFile)
			defer closeLog()

			e := newServeEcho(log, o)
			log.Info("starting server", "address", o.addr, "max_body_bytes", o.maxBody)
			return serveStartConfig(o).Start(ctx, e)
		},
	}
}

// serveLogger swaps the session logger for a JSON logger on a rotated file
// when logFile is set. The returned func closes the file.
func serveLogger(log logger.Logger, s session, logFile string) (logger.Logger, func() error) {
	if logFile == "" {
		return log, func() error { return nil }
	}
	rot := s.cfg.LogRotation
	rotator := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    rot.MaxSizeMB,
		MaxAge:     rot.MaxAgeDays,
		MaxBackups: rot.MaxBackups,
		Compress:   rot.Compress,
	}
	return logger.JSON(rotator, s.level), rotator.Close
}

func newServeEcho(log logger.Logger, o serveOptions) *echo.Echo {
	server := api.NewServer(api.Config{
		Logger:       log.WithGroup("api"),
		MaxBodyBytes: o.maxBody,
		Version:      version.String(),
		History:      int(o.history),
	})
	e := echo.New()
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	server.Register(e)
	return e
}

func serveStartConfig(o serveOptions) echo.StartConfig {
	return echo.StartConfig{
		Address: o.addr,
		BeforeServeFunc: func(srv *http.Server) error {
			srv.ReadHeaderTimeout = o.readTimeout
			return nil
		},
	}
}
