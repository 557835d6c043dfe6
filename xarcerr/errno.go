package xarcerr

import (
	"errors"
	"syscall"
)

// errnoOf extracts the platform errno from a wrapped filesystem error, the
// way the original C library surfaces errno directly. Returns 0 if none is
// found (e.g. the error did not originate from a syscall).
func errnoOf(err error) int32 {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int32(errno)
	}
	return 0
}
