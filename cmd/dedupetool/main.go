// Command dedupetool finds and reclaims duplicate storage on filesystems
// that support FIDEDUPERANGE (btrfs, XFS with reflink, ...), either from an
// externally supplied list of duplicate files or by chunking a directory
// tree itself.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dedupetool",
	Short: "Reclaim duplicate storage via FIDEDUPERANGE",
	Long:  `dedupetool finds file ranges that hold identical bytes and asks the kernel to share their physical storage.`,
}

func init() {
	rootCmd.AddCommand(dedupeCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(stdinCmd)
	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(directoryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
