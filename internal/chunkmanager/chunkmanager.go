// Package chunkmanager accumulates per-file chunk streams from the content
// defined chunker and finds maximal runs of consecutive chunks shared across
// two or more files, turning them into dedup targets.
//
// It is an arena-plus-indices structure on purpose: one flat chunk slice
// plus a handful of index maps over it, no pointers between chunks and no
// possibility of a reference cycle.
package chunkmanager

import (
	"fmt"
	"sort"

	"github.com/octylFractal/dedupetool/internal/chunker"
	"github.com/octylFractal/dedupetool/internal/target"
)

type bucketKey struct {
	hash   uint64
	length uint32
}

// ChunkManager holds every chunk seen across every pushed path, plus the
// indices needed to (a) map a chunk back to the path it came from and (b)
// map a (hash, length) pair to every chunk index sharing it.
type ChunkManager struct {
	paths          []string
	chunkData      []chunker.Chunk
	pathChunkStart []int // pathChunkStart[p] is chunkData index where path p begins
	pathChunkEnd   []int // pathChunkEnd[p] is the exclusive end

	// bucket indexes chunkData by (hash, length); it is the only thing
	// mutated after construction, as runs consume chunks out of it.
	bucket map[bucketKey]map[int]struct{}
}

// New returns an empty ChunkManager.
func New() *ChunkManager {
	return &ChunkManager{
		bucket: make(map[bucketKey]map[int]struct{}),
	}
}

// PushPath appends one file's chunk stream. Paths must be pushed in the
// order their section targets should be preferred as a dedup source; once
// pushed, a path's chunks never move.
func (m *ChunkManager) PushPath(path string, chunks []chunker.Chunk) {
	m.paths = append(m.paths, path)
	start := len(m.chunkData)
	m.pathChunkStart = append(m.pathChunkStart, start)

	for _, c := range chunks {
		idx := len(m.chunkData)
		m.chunkData = append(m.chunkData, c)
		key := bucketKey{c.Hash, c.Length}
		if m.bucket[key] == nil {
			m.bucket[key] = make(map[int]struct{})
		}
		m.bucket[key][idx] = struct{}{}
	}
	m.pathChunkEnd = append(m.pathChunkEnd, len(m.chunkData))
}

// pathOf returns the index of the path that owns chunk index idx, via
// binary search over the (sorted, contiguous) per-path ranges.
func (m *ChunkManager) pathOf(idx int) int {
	return sort.Search(len(m.pathChunkEnd), func(p int) bool {
		return idx < m.pathChunkEnd[p]
	})
}

// IntoFileSectionTargets consumes the manager's state and returns every
// maximal run of chunks shared, in lockstep, across two or more of the
// pushed files.
func (m *ChunkManager) IntoFileSectionTargets() ([]target.FileSectionTarget, error) {
	m.retainSharedBuckets()

	var results []target.FileSectionTarget
	for p := 0; p < len(m.paths); p++ {
		start, end := m.pathChunkStart[p], m.pathChunkEnd[p]
		startChunks := map[int]int{} // other path index -> that path's starting chunk index for the current run

		emit := func(uptoExclusive int) error {
			if len(startChunks) < 2 {
				startChunks = map[int]int{}
				return nil
			}
			t, err := m.createTarget(p, startChunks, uptoExclusive)
			if err != nil {
				return err
			}
			results = append(results, t)
			startChunks = map[int]int{}
			return nil
		}

		for ci := start; ci < end; ci++ {
			c := m.chunkData[ci]
			key := bucketKey{c.Hash, c.Length}
			set, ok := m.bucket[key]
			if !ok || !setHas(set, ci) {
				if err := emit(ci); err != nil {
					return nil, err
				}
				continue
			}

			current := make(map[int]int, len(set))
			for idx := range set {
				current[m.pathOf(idx)] = idx
			}

			if len(startChunks) == 0 {
				startChunks = current
				continue
			}

			next := make(map[int]int, len(startChunks))
			for otherPath, startIdx := range startChunks {
				if _, stillPresent := current[otherPath]; stillPresent {
					next[otherPath] = startIdx
				}
			}
			if len(next) < 2 {
				if err := emit(ci); err != nil {
					return nil, err
				}
				startChunks = current
				continue
			}
			startChunks = next
		}
		if err := emit(end); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// retainSharedBuckets drops buckets that, after collapsing to one chunk per
// distinct file, no longer have two or more distinct files in them — a
// bucket with repeats only within a single file isn't useful for
// cross-file deduplication.
func (m *ChunkManager) retainSharedBuckets() {
	for key, set := range m.bucket {
		seenPaths := make(map[int]struct{}, len(set))
		for idx := range set {
			p := m.pathOf(idx)
			if _, already := seenPaths[p]; already {
				delete(set, idx)
				continue
			}
			seenPaths[p] = struct{}{}
		}
		if len(set) < 2 {
			delete(m.bucket, key)
		}
	}
}

// createTarget builds the FileSectionTarget for the run ending just before
// uptoExclusive in path p, then evicts every OTHER path's consumed chunks
// from the bucket index so a later run can't reuse them. p's own chunks are
// deliberately left in place: p can still act as a source for a later,
// disjoint run.
func (m *ChunkManager) createTarget(p int, startChunks map[int]int, uptoExclusive int) (target.FileSectionTarget, error) {
	firstIdx, ok := startChunks[p]
	if !ok {
		return target.FileSectionTarget{}, fmt.Errorf("chunkmanager: run owner path missing its own start index")
	}
	lastIdx := uptoExclusive - 1
	runLen := lastIdx - firstIdx + 1

	for otherPath, otherStart := range startChunks {
		if otherPath == p {
			continue
		}
		for c := otherStart; c < otherStart+runLen; c++ {
			chunk := m.chunkData[c]
			key := bucketKey{chunk.Hash, chunk.Length}
			if set, ok := m.bucket[key]; ok {
				delete(set, c)
				if len(set) == 0 {
					delete(m.bucket, key)
				}
			}
		}
	}

	first := m.chunkData[firstIdx]
	last := m.chunkData[lastIdx]
	length := last.Offset + uint64(last.Length) - first.Offset

	type pathOffset struct {
		path   string
		offset uint64
		source bool
	}
	raw := make([]pathOffset, 0, len(startChunks))
	for otherPath, idx := range startChunks {
		raw = append(raw, pathOffset{m.paths[otherPath], m.chunkData[idx].Offset, otherPath == p})
	}
	// p comes first, since the first offset is the dedup source; the rest
	// are ordered by path.
	sort.Slice(raw, func(i, j int) bool {
		if raw[i].source != raw[j].source {
			return raw[i].source
		}
		return raw[i].path < raw[j].path
	})

	offsets := make([]target.FileOffset, 0, len(raw))
	for _, ro := range raw {
		fo, err := target.NewFileOffset(ro.path, ro.offset)
		if err != nil {
			return target.FileSectionTarget{}, err
		}
		offsets = append(offsets, fo)
	}

	return target.FileSectionTarget{Length: length, Offsets: offsets}, nil
}

func setHas(set map[int]struct{}, idx int) bool {
	_, ok := set[idx]
	return ok
}
