//go:build linux

package extents

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/sys/unix"
)

// DumpExtents prints every extent backing filePath to w, filefrag-style: one
// row per extent with logical/physical start, length, and flags. If
// useBytes is false, values are printed in units of the file's preferred
// block size instead of raw bytes. If fast is true, plain buffered output is
// used instead of column alignment.
func DumpExtents(w io.Writer, filePath string, syncFirst, useBytes, fast bool) error {
	fmt.Fprintln(w, "File:", filePath)

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", filePath, err)
	}
	defer file.Close()

	var stat unix.Stat_t
	if err := unix.Fstat(int(file.Fd()), &stat); err != nil {
		return fmt.Errorf("stat %s: %w", filePath, err)
	}
	blkSize := uint64(stat.Blksize)
	fmt.Fprintln(w, "File Size  (Bytes):", stat.Size)
	fmt.Fprintln(w, "Block Size (Bytes):", blkSize)

	units := "Blocks"
	divisor := blkSize
	if useBytes || divisor == 0 {
		units = "Bytes"
		divisor = 1
	}
	fmt.Fprintln(w, "Start/Length Units:", units)

	var out io.Writer
	var flush func()
	if fast {
		bw := bufio.NewWriter(w)
		out, flush = bw, func() { bw.Flush() }
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		out, flush = tw, func() { tw.Flush() }
	}
	defer flush()

	fmt.Fprintln(out, "Extent-Index\tLogical-Start\tPhysical-Start\tLength\tFlags")

	exts, err := GetExtents(file, 0, requestEnd(stat.Size), syncFirst)
	if err != nil {
		return fmt.Errorf("walk extents of %s: %w", filePath, err)
	}
	for i, e := range exts {
		fmt.Fprintf(out, "%d\t%d\t%d\t%d\t", i, e.LogicalOffset/divisor, e.PhysicalOffset/divisor, e.Length/divisor)
		fmt.Fprintln(out, strings.Join(FlagStrings(e), ","))
	}
	return nil
}

// requestEnd returns the end offset to request for a file of the given
// size: the file's own length, so a sparse trailing hole still gets a
// terminal request.
func requestEnd(size int64) uint64 {
	if size <= 0 {
		return 0
	}
	return uint64(size)
}
