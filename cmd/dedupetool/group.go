//go:build linux

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/octylFractal/dedupetool/internal/grouper"
	"github.com/octylFractal/dedupetool/internal/target"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Dedupe groups produced by an external duplicate finder",
	Long: `group reads newline-delimited JSON group objects ({"files": [{"path": "..."}]})
from stdin, the contract an external duplicate finder (e.g. an fclones-style
front end) can be made to emit, and deduplicates each group.`,
	Args: cobra.NoArgs,
	Run:  runGroup,
}

func init() {
	addOrchestratorFlags(groupCmd)
}

func runGroup(cmd *cobra.Command, args []string) {
	g := grouper.NewJSONLinesGrouper(os.Stdin)
	groups, err := g.Groups()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error reading groups:", err)
		os.Exit(1)
	}

	targets := make([]target.DeduplicationTarget, len(groups))
	for i, grp := range groups {
		targets[i] = target.NewFilesTarget(grp.Paths())
	}

	runTargetsAndExit(cmd, targets)
}
