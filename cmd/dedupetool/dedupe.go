//go:build linux

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/octylFractal/dedupetool/internal/dedupe"
	"github.com/octylFractal/dedupetool/internal/progressui"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe <source-file> <target-file> [target-file...]",
	Short: "Dedupe performs block deduplication between files",
	Long:  `dedupe performs block deduplication between a source file and one or more target files, covering the whole source length.`,
	Args:  cobra.MinimumNArgs(2),
	Run:   runDedupe,
}

func runDedupe(cmd *cobra.Command, args []string) {
	sourceFile := args[0]
	destinationFiles := args[1:]

	info, err := os.Stat(sourceFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting source file info: %v\n", err)
		return
	}

	requests := make(map[string]dedupe.DedupeRequest, len(destinationFiles))
	for _, destFile := range destinationFiles {
		requests[destFile] = dedupe.DedupeRequest{DestPath: destFile, DestOffset: 0}
	}

	bar := progressui.NewByteBar(info.Size(), "deduping")
	defer bar.Exit()

	responses, err := dedupe.DedupeFilePaths(sourceFile, dedupe.ByteRange{Start: 0, End: uint64(info.Size())}, requests)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error during deduplication:", err)
		return
	}
	bar.Set64(info.Size())

	var errorSeen bool
	var bytesSaved uint64
	for destFile, rs := range responses {
		for _, r := range rs {
			switch r.Kind {
			case dedupe.RangeSame:
				bytesSaved += r.BytesDeduped
			case dedupe.RangeError:
				fmt.Fprintf(os.Stderr, "Destination %s failed: %v.\n", destFile, r.Err)
				errorSeen = true
			case dedupe.RangeDiffers:
				fmt.Fprintf(os.Stderr, "Destination %s did not match.\n", destFile)
				errorSeen = true
			}
		}
	}

	progressui.PrintSummary(bytesSaved, errorSeen)
}
