//go:build linux

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/octylFractal/dedupetool/internal/grouper"
	"github.com/octylFractal/dedupetool/internal/target"
)

var stdinCmd = &cobra.Command{
	Use:   "stdin",
	Short: "Dedupe blank-line-delimited file groups read from stdin",
	Long:  `stdin reads groups of file paths from standard input, one path per line, groups separated by a blank line, and deduplicates each group against itself.`,
	Args:  cobra.NoArgs,
	Run:   runStdin,
}

func init() {
	addOrchestratorFlags(stdinCmd)
}

func runStdin(cmd *cobra.Command, args []string) {
	groups, err := grouper.ReadStdinGroups(os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error reading groups from stdin:", err)
		os.Exit(1)
	}

	targets := make([]target.DeduplicationTarget, len(groups))
	for i, g := range groups {
		targets[i] = target.NewFilesTarget(g)
	}

	runTargetsAndExit(cmd, targets)
}
