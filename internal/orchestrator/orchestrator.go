//go:build linux

// Package orchestrator drives a stream of deduplication targets through the
// pruner and the dedupe driver under a bounded-concurrency permit pool,
// aggregating results for reporting.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/octylFractal/dedupetool/internal/dedupe"
	"github.com/octylFractal/dedupetool/internal/pruner"
	"github.com/octylFractal/dedupetool/internal/target"
)

// minWholeFileSize is the "not worth it" threshold for whole-file groups:
// a first file smaller than this is rejected as a no-op rather than handed
// to the driver.
const minWholeFileSize = 16 * 1024

// Config controls how targets are processed.
type Config struct {
	MaxConcurrency int64 // permits in the pool; <=0 means DefaultMaxConcurrency
	SkipFiemap     bool  // skip the redundancy pruner entirely
	DryRun         bool  // prune and report but never call the dedupe driver
}

// DefaultMaxConcurrency matches the Rust original's default worker count.
const DefaultMaxConcurrency = 32

// TargetResult is the per-target outcome, extended from the Rust original's
// DedupeInfo to also cover Sections targets.
type TargetResult struct {
	Target          target.DeduplicationTarget
	Skipped         bool // dropped by pruning, the size threshold or DryRun; never dispatched
	FilesAffected   int
	FilesErrored    int
	TotalBytesSaved uint64
	Err             error
}

// Summary aggregates every TargetResult processed in one run.
type Summary struct {
	Results       []TargetResult
	MaxBytesSaved uint64 // sum of TotalBytesSaved; reported as "up to" since
	// kernel-side savings depend on extents not yet shared elsewhere
	AnyFailed bool
}

// Run processes every target, returning once all have completed or ctx is
// canceled.
func Run(ctx context.Context, cfg Config, targets []target.DeduplicationTarget) (Summary, error) {
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	sem := semaphore.NewWeighted(maxConcurrency)

	var mu sync.Mutex
	var summary Summary

	g, gCtx := errgroup.WithContext(ctx)
	for _, tgt := range targets {
		tgt := tgt
		if err := sem.Acquire(gCtx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			result := processOne(cfg, tgt)
			mu.Lock()
			summary.Results = append(summary.Results, result)
			summary.MaxBytesSaved += result.TotalBytesSaved
			if result.FilesErrored > 0 || result.Err != nil {
				summary.AnyFailed = true
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}

func processOne(cfg Config, tgt target.DeduplicationTarget) TargetResult {
	result := TargetResult{Target: tgt}

	if !cfg.SkipFiemap {
		pruned, err := pruneTarget(tgt)
		if err != nil {
			result.Err = err
			return result
		}
		tgt = pruned
		result.Target = tgt
	}

	if tgt.Len() < 2 {
		result.Skipped = true
		return result
	}

	if tgt.IsFiles() {
		info, err := os.Stat(tgt.Files()[0])
		if err != nil {
			result.Err = err
			return result
		}
		if info.Size() < minWholeFileSize {
			result.Skipped = true
			return result
		}
	}

	if cfg.DryRun {
		result.Skipped = true
		return result
	}

	return dispatch(tgt)
}

func pruneTarget(tgt target.DeduplicationTarget) (target.DeduplicationTarget, error) {
	if tgt.IsFiles() {
		return pruner.RemoveAlreadyShared(tgt, pruner.WholeFileExtents(tgt.Files()))
	}
	return pruner.RemoveAlreadyShared(tgt, pruner.SectionExtents(tgt.Section()))
}

func dispatch(tgt target.DeduplicationTarget) TargetResult {
	result := TargetResult{Target: tgt}

	var srcPath string
	var srcRange dedupe.ByteRange
	requests := make(map[int]dedupe.DedupeRequest)

	if tgt.IsFiles() {
		files := tgt.Files()
		srcPath = files[0]
		info, err := os.Stat(srcPath)
		if err != nil {
			result.Err = err
			return result
		}
		srcRange = dedupe.ByteRange{Start: 0, End: uint64(info.Size())}
		for i, f := range files[1:] {
			requests[i] = dedupe.DedupeRequest{DestPath: f, DestOffset: 0}
		}
	} else {
		sec := tgt.Section()
		srcPath = sec.Offsets[0].File
		srcRange = dedupe.ByteRange{Start: sec.Offsets[0].Offset, End: sec.Offsets[0].Offset + sec.Length}
		for i, off := range sec.Offsets[1:] {
			requests[i] = dedupe.DedupeRequest{DestPath: off.File, DestOffset: off.Offset}
		}
	}

	responses, err := dedupe.DedupeFilePaths(srcPath, srcRange, requests)
	if err != nil {
		result.Err = fmt.Errorf("dedupe %s: %w", srcPath, err)
		return result
	}

	for _, rs := range responses {
		affected := false
		errored := false
		for _, r := range rs {
			switch r.Kind {
			case dedupe.RangeSame:
				result.TotalBytesSaved += r.BytesDeduped
				affected = true
			case dedupe.RangeError:
				errored = true
			}
		}
		if affected {
			result.FilesAffected++
		}
		if errored {
			result.FilesErrored++
		}
	}
	return result
}
