package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/rrdarch/internal/compress"
	"github.com/samcharles93/rrdarch/pkg/rrd"
)

func inspectCmd() *cli.Command {
	var (
		inPath string
		asJSON bool
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Decode the definitions of an RRD file without rrdtool",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "in",
				Aliases:     []string{"i"},
				Usage:       "RRD file to inspect",
				Required:    true,
				Destination: &inPath,
			},
			&cli.BoolFlag{Name: "json", Usage: "print JSON", Destination: &asJSON},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			info, err := inspectFile(inPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: inspect %s: %v", inPath, err), exitInput)
			}
			if asJSON {
				return writeJSON(info)
			}
			_, _ = fmt.Fprint(stdout, formatInfo(inPath, info))
			return nil
		},
	}
}

func inspectFile(path string) (*rrd.Info, error) {
	r, _, err := compress.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return rrd.InspectReader(r)
}

func formatInfo(path string, info *rrd.Info) string {
	var b strings.Builder
	fmt.Fprintf(&b, "file:        %s\n", path)
	fmt.Fprintf(&b, "arch:        %s\n", info.Arch)
	fmt.Fprintf(&b, "step:        %d\n", info.Header.PDPStep)
	fmt.Fprintf(&b, "last update: %s (%d)\n", info.LastUpdate.Format("2006-01-02 15:04:05Z07:00"), info.LastUpdate.Unix())

	fmt.Fprintf(&b, "data sources (%d):\n", len(info.DataSources))
	for _, ds := range info.DataSources {
		fmt.Fprintf(&b, "  %-19s %-8s heartbeat=%d min=%s max=%s last=%q\n",
			ds.Name, ds.Type, ds.Heartbeat, bound(ds.Min), bound(ds.Max), ds.LastValue)
	}

	fmt.Fprintf(&b, "archives (%d):\n", len(info.Archives))
	for i, a := range info.Archives {
		fmt.Fprintf(&b, "  [%d] %-8s xff=%.2f pdp_per_row=%d rows=%d cur_row=%d\n",
			i, a.CF, float64(a.XFF), a.PDPPerRow, a.Rows, a.CurrentRow)
	}

	fmt.Fprintf(&b, "rows:        %d\n", info.Rows)
	fmt.Fprintf(&b, "size:        %d bytes (layout predicts %d)\n", info.ActualSize, info.FileSize)
	if info.TrailingBytes > 0 {
		fmt.Fprintf(&b, "trailing:    %d bytes after the last row\n", info.TrailingBytes)
	}
	return b.String()
}

func bound(v rrd.Value) string {
	if v.IsUnknown() {
		return "U"
	}
	return fmt.Sprintf("%g", float64(v))
}
