// Package extents reads the physical layout of a file via FS_IOC_FIEMAP.
package extents

import (
	"fmt"
	"os"

	"github.com/octylFractal/dedupetool/internal/ioctlfs"
)

// Extent describes one mapped region of a file, in both logical (file) and
// physical (device) address space.
type Extent struct {
	LogicalOffset  uint64
	PhysicalOffset uint64
	Length         uint64
	Flags          map[ExtentFlag]struct{}
}

// HasFlag reports whether the extent carries the given flag.
func (e Extent) HasFlag(f ExtentFlag) bool {
	_, ok := e.Flags[f]
	return ok
}

// extentBatchSize is the number of fiemap_extent entries requested per
// ioctl call, making the ioctl request buffer 28,704 bytes (a 32-byte header
// plus 512 extent slots of 56 bytes each).
const extentBatchSize = 512

// GetExtents returns the extents covering [start, end) of file, paging
// through FS_IOC_FIEMAP as needed. If sync is true the file's dirty pages are
// flushed before mapping, giving an up to date view at the cost of an extra
// fsync.
//
// An empty file (or a range with nothing mapped) returns (nil, nil). A call
// after the first that maps nothing, before any extent carried
// FIEMAP_EXTENT_LAST, means the file changed while it was being read, and is
// returned as an error.
func GetExtents(file *os.File, start, end uint64, sync bool) ([]Extent, error) {
	if end <= start {
		return nil, nil
	}

	var flags uint32
	if sync {
		flags |= ioctlfs.FIEMAP_FLAG_SYNC
	}

	buf := make([]ioctlfs.FiemapExtent, extentBatchSize)

	var result []Extent
	nextStart := start
	for {
		remaining := end - nextStart
		fm := ioctlfs.Fiemap{
			Start:   nextStart,
			Length:  remaining,
			Flags:   flags,
			Extents: buf,
		}
		if err := ioctlfs.IoctlFiemap(int(file.Fd()), &fm); err != nil {
			return nil, fmt.Errorf("fiemap ioctl on %s: %w", file.Name(), err)
		}

		if fm.Mapped_extents == 0 {
			if nextStart != start {
				return nil, fmt.Errorf("fiemap on %s: no extents at offset %d before the last extent; file changed during read", file.Name(), nextStart)
			}
			// Nothing mapped in the requested range at all: an empty file
			// or a hole.
			return result, nil
		}

		sawLast := false
		for i := 0; i < int(fm.Mapped_extents); i++ {
			raw := fm.Extents[i]
			result = append(result, Extent{
				LogicalOffset:  raw.Logical,
				PhysicalOffset: raw.Physical,
				Length:         raw.Length,
				Flags:          decodeFlags(raw.Flags),
			})
			if raw.Flags&ioctlfs.FIEMAP_EXTENT_LAST != 0 {
				sawLast = true
				break
			}
		}
		if sawLast {
			return result, nil
		}

		last := fm.Extents[fm.Mapped_extents-1]
		newNextStart := last.Logical + last.Length
		if newNextStart <= nextStart || newNextStart >= end {
			// The file shrank out from under us, or we've reached the
			// requested end without ever seeing FIEMAP_EXTENT_LAST; either
			// way there is nothing more this caller asked for.
			return result, nil
		}
		nextStart = newNextStart
	}
}
