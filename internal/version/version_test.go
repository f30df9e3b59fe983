package version

import (
	"runtime/debug"
	"testing"
)

func TestFromBuildInfo(t *testing.T) {
	t.Parallel()

	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v1.2.3"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	}
	got := fromBuildInfo(Info{}, bi)
	if got.Version != "v1.2.3" || got.Commit != "0123456789abcdef0123" || got.BuildTime != "2026-01-02T03:04:05Z" {
		t.Fatalf("unexpected info: %+v", got)
	}
	if s := got.String(); s != "v1.2.3 (0123456789ab)" {
		t.Fatalf("string mismatch: got %q", s)
	}
}

func TestFromBuildInfoKeepsLinkerValues(t *testing.T) {
	t.Parallel()

	bi := &debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "ffff"}},
	}
	got := fromBuildInfo(Info{Version: "1.0.0", Commit: "abc"}, bi)
	if got.Version != "1.0.0" || got.Commit != "abc" {
		t.Fatalf("linker values overwritten: %+v", got)
	}
	if s := got.String(); s != "1.0.0 (abc)" {
		t.Fatalf("string mismatch: got %q", s)
	}
}
