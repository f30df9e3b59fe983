// Package rrdinfo reads the schema of an RRD file, either from the output of
// "rrdtool info" or from the native decoder in pkg/rrd, and renders it as the
// "rrdtool create" command that would recreate an empty file with the same
// layout.
package rrdinfo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// DefaultTool is looked up in PATH when no rrdtool binary is configured.
const DefaultTool = "rrdtool"

var (
	ErrNotRRD        = errors.New("rrdinfo: output is not an rrdtool info dump")
	ErrNoDataSources = errors.New("rrdinfo: DS is a required field")
	ErrNoArchives    = errors.New("rrdinfo: rra is a required field")
)

// Runner executes an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec. Numeric output is forced to the C
// locale so decimals always use a dot.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), "LC_NUMERIC=C", "LC_ALL=")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// Dump runs "<tool> info <path>".
func Dump(ctx context.Context, runner Runner, tool, path string) (string, error) {
	if tool == "" {
		tool = DefaultTool
	}
	out, err := runner.Run(ctx, tool, "info", path)
	if err != nil {
		return "", fmt.Errorf("rrdinfo: dump %s: %w", path, err)
	}
	s := string(out)
	if !strings.Contains(s, "header_size") {
		return "", fmt.Errorf("%w: %s", ErrNotRRD, path)
	}
	return s, nil
}
