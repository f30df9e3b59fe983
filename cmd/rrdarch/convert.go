package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/rrdarch/internal/compress"
	"github.com/samcharles93/rrdarch/internal/logger"
	"github.com/samcharles93/rrdarch/pkg/rrd"
)

const (
	exitInput     = 1
	exitIntegrity = 2
)

func convertCmd() *cli.Command {
	var (
		inPath      string
		outPath     string
		target      string
		force       bool
		keepPartial bool
	)

	return &cli.Command{
		Name:  "convert",
		Usage: "Rewrite an RRD file for the other architecture",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "in",
				Aliases:     []string{"i"},
				Usage:       "source RRD file (.gz, .zst and .s2 are decompressed)",
				Required:    true,
				Destination: &inPath,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "destination RRD file (.gz, .zst and .s2 are compressed)",
				Required:    true,
				Destination: &outPath,
			},
			&cli.StringFlag{
				Name:        "target",
				Aliases:     []string{"t"},
				Usage:       "target architecture (armv6l, x86_64, host or auto)",
				Value:       "auto",
				Destination: &target,
			},
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "overwrite an existing destination", Destination: &force},
			&cli.BoolFlag{Name: "keep-partial", Usage: "keep the partial output as <out>.partial after a failure", Destination: &keepPartial},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s := sessionFrom(ctx)
			log := logger.FromContext(ctx)
			applyConvertConfig(cmd, s.cfg, &target)

			arch, err := resolveTarget(target)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), exitInput)
			}
			if err := checkPaths(inPath, outPath, force); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), exitInput)
			}

			res, err := convertFile(inPath, outPath, arch, keepPartial, log)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: convert %s: %v", inPath, err), exitCode(err))
			}
			if res.TrailingBytes > 0 {
				log.Warn("source has bytes after the last row; they were not copied", "bytes", res.TrailingBytes)
			}
			_, _ = fmt.Fprintf(stdout, "%s (%s) -> %s (%s): %d data sources, %d archives, %d rows, %d bytes\n",
				inPath, res.SourceArch, outPath, res.TargetArch,
				res.Header.DSCount, res.Header.RRACount, res.Rows, res.BytesWritten)
			return nil
		},
	}
}

// resolveTarget accepts every rrd.ParseArch name plus "host".
func resolveTarget(name string) (rrd.Arch, error) {
	if strings.EqualFold(strings.TrimSpace(name), "host") {
		h := probeHost()
		if !h.Supported {
			return rrd.ArchAuto, fmt.Errorf("host architecture %s is not a supported target", h.Machine)
		}
		return h.Arch, nil
	}
	return rrd.ParseArch(name)
}

func checkPaths(in, out string, force bool) error {
	inInfo, err := os.Stat(in)
	if err != nil {
		return err
	}
	outInfo, err := os.Stat(out)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return err
	case os.SameFile(inInfo, outInfo):
		return fmt.Errorf("source and destination are the same file: %s", out)
	case !force:
		return fmt.Errorf("destination %s exists (use --force to overwrite)", out)
	}
	return nil
}

// convertFile writes into a temporary file next to out and renames it into
// place on success, so a failed run never replaces an existing destination.
func convertFile(in, out string, target rrd.Arch, keepPartial bool, log logger.Logger) (*rrd.Result, error) {
	tmp, err := os.CreateTemp(filepath.Dir(out), "."+filepath.Base(out)+".*.tmp")
	if err != nil {
		return nil, err
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()

	var res *rrd.Result
	if compress.Detect(in) == compress.None && compress.Detect(out) == compress.None {
		res, err = rrd.Convert(in, tmpPath, target, rrd.Options{Logger: log})
	} else {
		res, err = transcodeFile(in, tmpPath, compress.Detect(out), target, log)
	}
	if err != nil {
		discard(tmpPath, out, keepPartial && !rrd.IsInputError(err), log)
		return res, err
	}
	if err := os.Rename(tmpPath, out); err != nil {
		_ = os.Remove(tmpPath)
		return res, err
	}
	return res, nil
}

// transcodeFile is the streaming path used when either side is compressed.
func transcodeFile(in, tmpPath string, codec compress.Codec, target rrd.Arch, log logger.Logger) (res *rrd.Result, err error) {
	src, srcCodec, err := compress.OpenReader(in)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	dst, err := compress.NewWriter(f, codec)
	if err != nil {
		return nil, err
	}

	log.Debug("streaming conversion", "source_codec", srcCodec.String(), "target_codec", codec.String())
	res, err = rrd.Transcode(src, dst, target, rrd.Options{Logger: log})
	if cerr := dst.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return res, err
}

func discard(tmpPath, out string, keep bool, log logger.Logger) {
	if keep {
		partial := out + ".partial"
		if err := os.Rename(tmpPath, partial); err == nil {
			log.Warn("kept partial output", "path", partial)
			return
		}
	}
	if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("could not remove partial output", "path", tmpPath, "error", err)
	}
}

func exitCode(err error) int {
	if errors.Is(err, rrd.ErrIntegrity) {
		return exitIntegrity
	}
	return exitInput
}
