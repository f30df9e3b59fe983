//go:build linux

package main

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// machine reports uname -m, which distinguishes armv6l from other 32-bit ARM
// variants where GOARCH does not.
func machine() string {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return runtime.GOARCH
	}
	return unix.ByteSliceToString(u.Machine[:])
}
