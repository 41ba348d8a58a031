//go:build linux

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/octylFractal/dedupetool/internal/extents"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file-path> [file-path...]",
	Short: "Inspect the on-disk extent layout of files",
	Long:  `inspect dumps the FIEMAP extent map of one or more files, similar to "filefrag -v".`,
	Args:  cobra.MinimumNArgs(1),
	Run:   runInspect,
}

func init() {
	inspectCmd.Flags().BoolP("sync", "s", false, "Sync the file to disk before requesting the extent map")
	inspectCmd.Flags().BoolP("bytes", "b", false, "Print offsets and lengths in bytes instead of blocks")
	inspectCmd.Flags().BoolP("fast", "f", false, "Disable pretty-print alignment to speed up runtime")
}

func runInspect(cmd *cobra.Command, args []string) {
	syncFirst, _ := cmd.Flags().GetBool("sync")
	useBytes, _ := cmd.Flags().GetBool("bytes")
	fast, _ := cmd.Flags().GetBool("fast")

	for _, filePath := range args {
		if err := extents.DumpExtents(os.Stdout, filePath, syncFirst, useBytes, fast); err != nil {
			fmt.Fprintf(os.Stderr, "Error showing extents for %s: %v\n", filePath, err)
		}
		fmt.Println()
	}
}
