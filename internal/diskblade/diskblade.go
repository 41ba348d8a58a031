//go:build linux

// Package diskblade walks a directory tree, content-defines-chunks every
// eligible file on a worker pool, and feeds the results into a
// chunkmanager.ChunkManager to discover cross-file dedup candidates.
package diskblade

import (
	"context"
	"fmt"
	"io/fs"
	"math"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/octylFractal/dedupetool/internal/chunker"
	"github.com/octylFractal/dedupetool/internal/chunkmanager"
)

// Config controls the walk and the chunker parameters applied to every file
// found.
type Config struct {
	Root    string
	MinSize uint32
	MaxSize uint32 // 0 means unlimited
	AvgSize uint32 // 0 means let the chunker pick a default
	Workers int    // 0 means 2*NumCPU
}

type walkEntry struct {
	path string
	size int64
}

type pushItem struct {
	path   string
	chunks []chunker.Chunk
}

// Run walks cfg.Root, chunks every eligible regular file, and pushes the
// results into manager in the order the workers finish them, which need not
// match the order files were discovered in. Eligible means: a regular
// file, at least MinSize bytes, owner-writable, and not a hardlink to an
// inode already seen during this walk.
func Run(ctx context.Context, cfg Config, manager *chunkmanager.ChunkManager) error {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 2 * runtime.NumCPU()
	}

	inputCh := make(chan walkEntry, workers*4)
	resultCh := make(chan pushItem, workers*4)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(inputCh)
		return walkTree(gCtx, cfg.Root, cfg.MinSize, inputCh)
	})

	var seenMu sync.Mutex
	seenInodes := make(map[uint64]struct{})

	var workerWG sync.WaitGroup
	workerWG.Add(workers)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			defer workerWG.Done()
			for {
				select {
				case <-gCtx.Done():
					return gCtx.Err()
				case entry, ok := <-inputCh:
					if !ok {
						return nil
					}
					item, skip, err := processEntry(entry, cfg, &seenMu, seenInodes)
					if err != nil {
						return err
					}
					if skip {
						continue
					}
					select {
					case resultCh <- item:
					case <-gCtx.Done():
						return gCtx.Err()
					}
				}
			}
		})
	}

	go func() {
		workerWG.Wait()
		close(resultCh)
	}()

	g.Go(func() error {
		for {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			case item, ok := <-resultCh:
				if !ok {
					return nil
				}
				manager.PushPath(item.path, item.chunks)
			}
		}
	})

	return g.Wait()
}

func walkTree(ctx context.Context, root string, minSize uint32, out chan<- walkEntry) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if info.Size() < int64(minSize) {
			return nil
		}
		if info.Mode().Perm()&0o200 == 0 {
			// Not owner-writable; FIDEDUPERANGE requires a writable
			// destination fd, so a read-only file can never be a target
			// here (it could still be a source, but we keep the filter
			// symmetric and simple, matching the walker's single-pass
			// eligibility check).
			return nil
		}
		select {
		case out <- walkEntry{path: path, size: info.Size()}:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})
}

func processEntry(entry walkEntry, cfg Config, seenMu *sync.Mutex, seenInodes map[uint64]struct{}) (pushItem, bool, error) {
	var stat unix.Stat_t
	if err := unix.Stat(entry.path, &stat); err != nil {
		return pushItem{}, false, fmt.Errorf("stat %s: %w", entry.path, err)
	}

	seenMu.Lock()
	_, already := seenInodes[stat.Ino]
	if !already {
		seenInodes[stat.Ino] = struct{}{}
	}
	seenMu.Unlock()
	if already {
		return pushItem{}, true, nil
	}

	max := cfg.MaxSize
	if max == 0 {
		max = math.MaxUint32
	}
	chunks, err := chunker.ChunkFile(entry.path, cfg.MinSize, cfg.AvgSize, max)
	if err != nil {
		return pushItem{}, false, err
	}
	if len(chunks) == 0 {
		return pushItem{}, true, nil
	}
	return pushItem{path: entry.path, chunks: chunks}, false, nil
}
