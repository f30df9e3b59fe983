package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/rrdarch/internal/logger"
	"github.com/samcharles93/rrdarch/internal/rrdinfo"
)

// runner is a seam for tests.
var runner rrdinfo.Runner = rrdinfo.ExecRunner{}

func schemaCmd() *cli.Command {
	var (
		inPath string
		native bool
		tool   string
		asJSON bool
	)

	return &cli.Command{
		Name:  "schema",
		Usage: "Print the rrdtool create command that recreates an RRD file's layout",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "in",
				Aliases:     []string{"i", "file", "f"},
				Usage:       "existing RRD file",
				Required:    true,
				Destination: &inPath,
			},
			&cli.BoolFlag{Name: "native", Usage: "decode the file directly instead of running rrdtool info", Destination: &native},
			&cli.StringFlag{
				Name:        "rrdtool",
				Usage:       "rrdtool binary",
				Value:       rrdinfo.DefaultTool,
				Destination: &tool,
			},
			&cli.BoolFlag{Name: "json", Usage: "print the parsed schema as JSON", Destination: &asJSON},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applySchemaConfig(cmd, sessionFrom(ctx).cfg, &tool)
			log := logger.FromContext(ctx)

			var s *rrdinfo.Schema
			if native {
				info, err := inspectFile(inPath)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: inspect %s: %v", inPath, err), exitInput)
				}
				s = rrdinfo.FromInfo(inPath, info)
			} else {
				log.Debug("running rrdtool", "tool", tool, "file", inPath)
				dump, err := rrdinfo.Dump(ctx, runner, tool, inPath)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), exitInput)
				}
				if s, err = rrdinfo.Parse(dump); err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), exitInput)
				}
			}

			if asJSON {
				return s.WriteJSON(stdout)
			}
			out, err := s.CreateCommand()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), exitInput)
			}
			_, _ = fmt.Fprint(stdout, out)
			return nil
		},
	}
}
