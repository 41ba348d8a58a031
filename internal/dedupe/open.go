//go:build linux

package dedupe

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// DedupeFilePaths opens srcPath and deduplicates srcRange against requests,
// closing the source file before returning. It is the entry point orchestrator
// code calls; DedupeFiles itself stays fd-based so tests can drive it against
// already-open files.
func DedupeFilePaths[K comparable](srcPath string, srcRange ByteRange, requests map[K]DedupeRequest) (map[K][]DedupeResponse, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return nil, fmt.Errorf("open source %s: %w", srcPath, err)
	}
	defer src.Close()

	var stat unix.Stat_t
	if err := unix.Fstat(int(src.Fd()), &stat); err != nil {
		return nil, fmt.Errorf("stat source %s: %w", srcPath, err)
	}

	return DedupeFiles(&stat, int(src.Fd()), srcRange, requests)
}
