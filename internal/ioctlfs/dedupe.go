//go:build linux

package ioctlfs

import "golang.org/x/sys/unix"

// Re-exported so callers only need to import ioctlfs for both kernel ioctls
// this tool drives, instead of reaching into x/sys/unix directly for one and
// this package for the other.
type (
	DedupeRange     = unix.FileDedupeRange
	DedupeRangeInfo = unix.FileDedupeRangeInfo
)

const (
	FILE_DEDUPE_RANGE_SAME    = unix.FILE_DEDUPE_RANGE_SAME
	FILE_DEDUPE_RANGE_DIFFERS = unix.FILE_DEDUPE_RANGE_DIFFERS
)

// IoctlDedupeRange performs one FIDEDUPERANGE ioctl call. The kernel caps
// both the source range length and the destination count internally;
// internal/dedupe is responsible for staying under those caps before calling
// this.
func IoctlDedupeRange(srcFd int, req *DedupeRange) error {
	return unix.IoctlFileDedupeRange(srcFd, req)
}
