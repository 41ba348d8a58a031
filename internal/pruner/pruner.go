// Package pruner implements redundancy pruning: dropping candidates from a
// deduplication target that the filesystem has already deduplicated against
// each other, so the driver isn't asked to redo work the kernel already did.
package pruner

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/octylFractal/dedupetool/internal/extents"
	"github.com/octylFractal/dedupetool/internal/target"
)

// candidate is one file or file-section being considered, paired with its
// canonical physical-extent key.
type candidate struct {
	index int
	key   string
}

// extentKey builds a canonical key from a candidate's extents: a
// (physical_offset, length) pair per extent, in logical order. Two
// candidates that resolve to the same key occupy exactly the same physical
// blocks, and are therefore already deduplicated against each other.
func extentKey(exts []extents.Extent) string {
	var b strings.Builder
	for _, e := range exts {
		fmt.Fprintf(&b, "%d:%d;", e.PhysicalOffset, e.Length)
	}
	return b.String()
}

// RemoveAlreadyShared buckets every candidate in tgt by its physical-extent
// key and prunes only the largest bucket: if it holds a single candidate
// (no sharing at all) tgt is returned unchanged; if it holds every
// candidate, an empty target is returned; otherwise that bucket is reduced
// to its first member. Candidates in every other bucket are kept, even when
// they share storage with each other.
//
// extentsOf resolves one candidate (by its index within tgt) to its extent
// list; for a Files target that's the whole file, for a Sections target
// that's the chunk-length range starting at the candidate's offset.
func RemoveAlreadyShared(tgt target.DeduplicationTarget, extentsOf func(index int) ([]extents.Extent, error)) (target.DeduplicationTarget, error) {
	n := tgt.Len()
	if n < 2 {
		return tgt, nil
	}

	buckets := make(map[string][]int)
	order := make([]string, 0, n)
	for i := 0; i < n; i++ {
		exts, err := extentsOf(i)
		if err != nil {
			return tgt, err
		}
		key := extentKey(exts)
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], i)
	}

	biggestKey := order[0]
	for _, key := range order[1:] {
		if len(buckets[key]) > len(buckets[biggestKey]) {
			biggestKey = key
		}
	}
	biggest := buckets[biggestKey]

	switch {
	case len(biggest) <= 1:
		// No two candidates share physical storage; nothing to prune.
		return tgt, nil
	case len(biggest) == n:
		// Every candidate is already one shared cluster; there is nothing
		// left for the driver to do.
		return emptyLike(tgt), nil
	default:
		// Keep one representative of the largest already-shared cluster,
		// plus every candidate outside it (those still need deduping).
		keep := make(map[int]struct{}, n-len(biggest)+1)
		keep[biggest[0]] = struct{}{}
		inBiggest := make(map[int]struct{}, len(biggest))
		for _, idx := range biggest {
			inBiggest[idx] = struct{}{}
		}
		for i := 0; i < n; i++ {
			if _, ok := inBiggest[i]; !ok {
				keep[i] = struct{}{}
			}
		}
		return subset(tgt, keep), nil
	}
}

func emptyLike(tgt target.DeduplicationTarget) target.DeduplicationTarget {
	if tgt.IsFiles() {
		return target.NewFilesTarget(nil)
	}
	return target.NewSectionsTarget(target.FileSectionTarget{Length: tgt.Section().Length})
}

func subset(tgt target.DeduplicationTarget, keep map[int]struct{}) target.DeduplicationTarget {
	kept := make([]int, 0, len(keep))
	for idx := range keep {
		kept = append(kept, idx)
	}
	sort.Ints(kept)

	if tgt.IsFiles() {
		files := tgt.Files()
		out := make([]string, 0, len(kept))
		for _, idx := range kept {
			out = append(out, files[idx])
		}
		return target.NewFilesTarget(out)
	}

	sec := tgt.Section()
	out := make([]target.FileOffset, 0, len(kept))
	for _, idx := range kept {
		out = append(out, sec.Offsets[idx])
	}
	return target.NewSectionsTarget(target.FileSectionTarget{Length: sec.Length, Offsets: out})
}

// WholeFileExtents is the extentsOf callback for Files-variant targets: it
// reads the full extent map of the file at the given index.
func WholeFileExtents(files []string) func(index int) ([]extents.Extent, error) {
	return func(index int) ([]extents.Extent, error) {
		f, err := os.Open(files[index])
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", files[index], err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", files[index], err)
		}
		if info.Size() == 0 {
			return nil, nil
		}
		return extents.GetExtents(f, 0, uint64(info.Size()), false)
	}
}

// SectionExtents is the extentsOf callback for Sections-variant targets: it
// reads just the candidate's own length-bytes range.
func SectionExtents(sec target.FileSectionTarget) func(index int) ([]extents.Extent, error) {
	return func(index int) ([]extents.Extent, error) {
		off := sec.Offsets[index]
		f, err := os.Open(off.File)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", off.File, err)
		}
		defer f.Close()
		return extents.GetExtents(f, off.Offset, off.Offset+sec.Length, false)
	}
}
