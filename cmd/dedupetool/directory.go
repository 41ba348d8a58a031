//go:build linux

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/octylFractal/dedupetool/internal/chunkmanager"
	"github.com/octylFractal/dedupetool/internal/diskblade"
	"github.com/octylFractal/dedupetool/internal/target"
)

func sectionsToTargets(sections []target.FileSectionTarget) []target.DeduplicationTarget {
	targets := make([]target.DeduplicationTarget, len(sections))
	for i, s := range sections {
		targets[i] = target.NewSectionsTarget(s)
	}
	return targets
}

var directoryCmd = &cobra.Command{
	Use:   "directory <path>",
	Short: "Find and dedupe content-defined chunks shared across a directory tree",
	Long: `directory walks path, splits every eligible file into content-defined
chunks, and deduplicates every maximal run of chunks shared across two or
more files.`,
	Args: cobra.ExactArgs(1),
	Run:  runDirectory,
}

func init() {
	addOrchestratorFlags(directoryCmd)
	directoryCmd.Flags().Uint32("min-size", 16*1024, "Minimum chunk size in bytes; also the minimum file size considered")
	directoryCmd.Flags().Uint32("max-size", 0, "Maximum chunk size in bytes (0 means no limit)")
	directoryCmd.Flags().Uint32("avg-size", 128*1024, "Target average chunk size in bytes")
	directoryCmd.Flags().Int("threads", 0, "Number of chunking workers (0 means 2x NumCPU)")
}

func runDirectory(cmd *cobra.Command, args []string) {
	root := args[0]
	minSize, _ := cmd.Flags().GetUint32("min-size")
	maxSize, _ := cmd.Flags().GetUint32("max-size")
	avgSize, _ := cmd.Flags().GetUint32("avg-size")
	threads, _ := cmd.Flags().GetInt("threads")

	manager := chunkmanager.New()
	cfg := diskblade.Config{
		Root:    root,
		MinSize: minSize,
		MaxSize: maxSize,
		AvgSize: avgSize,
		Workers: threads,
	}
	if err := diskblade.Run(context.Background(), cfg, manager); err != nil {
		fmt.Fprintln(os.Stderr, "Error walking directory:", err)
		os.Exit(1)
	}

	sections, err := manager.IntoFileSectionTargets()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error building dedup targets:", err)
		os.Exit(1)
	}

	runTargetsAndExit(cmd, sectionsToTargets(sections))
}
