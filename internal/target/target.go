// Package target holds the value types that describe a candidate
// deduplication: either a plain group of whole files, or a set of
// content-defined sections scattered across files.
package target

import (
	"fmt"
	"path/filepath"
)

// FileOffset is a file path paired with a byte offset into it. The path is
// canonicalized (made absolute, symlinks resolved) at construction so that
// two FileOffsets naming the same on-disk location always compare equal,
// even if they were reached via different relative paths or symlinks.
type FileOffset struct {
	File   string
	Offset uint64
}

// NewFileOffset canonicalizes path and pairs it with offset.
func NewFileOffset(path string, offset uint64) (FileOffset, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return FileOffset{}, fmt.Errorf("canonicalize %s: %w", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return FileOffset{}, fmt.Errorf("canonicalize %s: %w", path, err)
	}
	return FileOffset{File: resolved, Offset: offset}, nil
}

// FileSectionTarget is a set of equal-length, presumed-identical byte ranges
// found across one or more files by content-defined chunking.
type FileSectionTarget struct {
	Length  uint64
	Offsets []FileOffset
}

// DeduplicationTarget is either a Files group (whole-file dedup, source is
// the first path) or a Sections group (a FileSectionTarget produced by
// chunk-based grouping). Exactly one of the two accessors is valid for any
// given value; use IsFiles/IsSections to discriminate.
type DeduplicationTarget struct {
	files   []string
	section *FileSectionTarget
}

// NewFilesTarget builds a Files-variant target from a group of file paths.
func NewFilesTarget(files []string) DeduplicationTarget {
	return DeduplicationTarget{files: files}
}

// NewSectionsTarget builds a Sections-variant target.
func NewSectionsTarget(section FileSectionTarget) DeduplicationTarget {
	return DeduplicationTarget{section: &section}
}

// IsFiles reports whether this is a Files-variant target.
func (t DeduplicationTarget) IsFiles() bool {
	return t.section == nil
}

// IsSections reports whether this is a Sections-variant target.
func (t DeduplicationTarget) IsSections() bool {
	return t.section != nil
}

// Files returns the file group. Only valid when IsFiles() is true.
func (t DeduplicationTarget) Files() []string {
	return t.files
}

// Section returns the section group. Only valid when IsSections() is true.
func (t DeduplicationTarget) Section() FileSectionTarget {
	return *t.section
}

// Len reports how many candidates this target carries (files, or section
// offsets), regardless of variant — used by callers that just need to check
// the "fewer than two candidates is a no-op" invariant.
func (t DeduplicationTarget) Len() int {
	if t.IsFiles() {
		return len(t.files)
	}
	return len(t.section.Offsets)
}

// Describe renders a short human-readable label for logging/reporting.
func (t DeduplicationTarget) Describe() string {
	if t.IsFiles() {
		if len(t.files) == 0 {
			return "<empty file group>"
		}
		return t.files[0]
	}
	if len(t.section.Offsets) == 0 {
		return "<empty section group>"
	}
	return fmt.Sprintf("%s@%d (%d bytes)", t.section.Offsets[0].File, t.section.Offsets[0].Offset, t.section.Length)
}
