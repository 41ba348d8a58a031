//go:build linux

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/octylFractal/dedupetool/internal/orchestrator"
	"github.com/octylFractal/dedupetool/internal/progressui"
	"github.com/octylFractal/dedupetool/internal/target"
)

// addOrchestratorFlags wires the flags shared by every subcommand that
// eventually dispatches targets through internal/orchestrator.
func addOrchestratorFlags(cmd *cobra.Command) {
	cmd.Flags().Int64("max-concurrency", orchestrator.DefaultMaxConcurrency, "Maximum number of targets to dedupe concurrently")
	cmd.Flags().Bool("skip-fiemap", false, "Skip the redundancy pruning pass (always dispatch every candidate)")
	cmd.Flags().Bool("dry-run", false, "Prune and report, but never call the dedupe ioctl")
}

func orchestratorConfigFromFlags(cmd *cobra.Command) orchestrator.Config {
	maxConcurrency, _ := cmd.Flags().GetInt64("max-concurrency")
	skipFiemap, _ := cmd.Flags().GetBool("skip-fiemap")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	return orchestrator.Config{
		MaxConcurrency: maxConcurrency,
		SkipFiemap:     skipFiemap,
		DryRun:         dryRun,
	}
}

// runTargetsAndExit dispatches targets through the orchestrator using the
// current command's flags, prints the summary banner, and exits 1 if any
// target failed, per the tool's documented exit code contract.
func runTargetsAndExit(cmd *cobra.Command, targets []target.DeduplicationTarget) {
	cfg := orchestratorConfigFromFlags(cmd)

	bar := progressui.NewCountBar(len(targets), "deduping targets")
	defer bar.Exit()

	summary, err := orchestrator.Run(context.Background(), cfg, targets)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running orchestrator:", err)
		os.Exit(1)
	}
	_ = bar.Set(len(targets))

	for _, r := range summary.Results {
		if r.Err != nil {
			progressui.PrintTargetError(r.Target.Describe(), r.Err)
		}
	}

	progressui.PrintSummary(summary.MaxBytesSaved, summary.AnyFailed)
	if summary.AnyFailed {
		os.Exit(1)
	}
}
