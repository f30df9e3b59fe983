package main

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/rrdarch/pkg/rrd"
)

type hostInfo struct {
	Machine   string   `json:"machine"`
	Arch      rrd.Arch `json:"arch"`
	Supported bool     `json:"supported"`
}

func probeHost() hostInfo {
	m := machine()
	arch, ok := archForMachine(m)
	return hostInfo{Machine: m, Arch: arch, Supported: ok}
}

// archForMachine maps a uname machine string (or GOARCH) to the RRD layout
// written by rrdtool on that machine.
func archForMachine(m string) (rrd.Arch, bool) {
	switch m {
	case "armv6l", "armv7l", "arm":
		return rrd.ArchARMv6l, true
	case "x86_64", "amd64":
		return rrd.ArchX8664, true
	default:
		return rrd.ArchAuto, false
	}
}

func hostCmd() *cli.Command {
	var asJSON bool
	return &cli.Command{
		Name:  "host",
		Usage: "Print the host architecture and whether files can be converted for it",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print JSON", Destination: &asJSON},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			h := probeHost()
			if asJSON {
				return writeJSON(h)
			}
			if !h.Supported {
				_, _ = fmt.Fprintf(stdout, "machine: %s\nlayout:  unsupported\n", h.Machine)
				return nil
			}
			_, _ = fmt.Fprintf(stdout, "machine: %s\nlayout:  %s\n", h.Machine, h.Arch)
			return nil
		},
	}
}

func writeJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
