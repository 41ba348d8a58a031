package extents

import (
	"fmt"

	"github.com/octylFractal/dedupetool/internal/ioctlfs"
)

// ExtentFlag is one decoded FIEMAP_EXTENT_* bit. Known bits get a name;
// anything the kernel sets that this tool doesn't recognize is preserved as
// Unknown(bit) rather than silently dropped.
type ExtentFlag struct {
	name string
	bit  uint32
}

func (f ExtentFlag) String() string {
	return f.name
}

var (
	ExtentFlagLast           = ExtentFlag{"last", ioctlfs.FIEMAP_EXTENT_LAST}
	ExtentFlagUnknownLoc     = ExtentFlag{"unknown", ioctlfs.FIEMAP_EXTENT_UNKNOWN}
	ExtentFlagDelalloc       = ExtentFlag{"delalloc", ioctlfs.FIEMAP_EXTENT_DELALLOC}
	ExtentFlagEncoded        = ExtentFlag{"encoded", ioctlfs.FIEMAP_EXTENT_ENCODED}
	ExtentFlagDataEncrypted  = ExtentFlag{"data_encrypted", ioctlfs.FIEMAP_EXTENT_DATA_ENCRYPTED}
	ExtentFlagNotAligned     = ExtentFlag{"not_aligned", ioctlfs.FIEMAP_EXTENT_NOT_ALIGNED}
	ExtentFlagDataInline     = ExtentFlag{"data_inline", ioctlfs.FIEMAP_EXTENT_DATA_INLINE}
	ExtentFlagDataTail       = ExtentFlag{"data_tail", ioctlfs.FIEMAP_EXTENT_DATA_TAIL}
	ExtentFlagUnwritten      = ExtentFlag{"unwritten", ioctlfs.FIEMAP_EXTENT_UNWRITTEN}
	ExtentFlagMerged         = ExtentFlag{"merged", ioctlfs.FIEMAP_EXTENT_MERGED}
	ExtentFlagShared         = ExtentFlag{"shared", ioctlfs.FIEMAP_EXTENT_SHARED}

	knownFlags = []ExtentFlag{
		ExtentFlagLast,
		ExtentFlagUnknownLoc,
		ExtentFlagDelalloc,
		ExtentFlagEncoded,
		ExtentFlagDataEncrypted,
		ExtentFlagNotAligned,
		ExtentFlagDataInline,
		ExtentFlagDataTail,
		ExtentFlagUnwritten,
		ExtentFlagMerged,
		ExtentFlagShared,
	}
)

// UnknownExtentFlag wraps an unrecognized bit (or residual bits) from a
// FIEMAP_EXTENT_* flags word.
func UnknownExtentFlag(bit uint32) ExtentFlag {
	return ExtentFlag{fmt.Sprintf("unknown(0x%x)", bit), bit}
}

func decodeFlags(raw uint32) map[ExtentFlag]struct{} {
	out := make(map[ExtentFlag]struct{})
	remaining := raw
	for _, f := range knownFlags {
		if remaining&f.bit != 0 {
			out[f] = struct{}{}
			remaining &^= f.bit
		}
	}
	// Every still-set bit is unrecognized; record each as its own flag
	// rather than folding them into one combined-mask entry.
	for bit := uint32(1); remaining != 0; bit <<= 1 {
		if remaining&bit != 0 {
			out[UnknownExtentFlag(bit)] = struct{}{}
			remaining &^= bit
		}
	}
	return out
}

// FlagStrings returns the flag names set on an extent, in a stable,
// human-readable order, matching the "last,shared,..." style filefrag uses.
func FlagStrings(e Extent) []string {
	var names []string
	for _, f := range knownFlags {
		if e.HasFlag(f) {
			names = append(names, f.name)
		}
	}
	for f := range e.Flags {
		isKnown := false
		for _, k := range knownFlags {
			if f == k {
				isKnown = true
				break
			}
		}
		if !isKnown {
			names = append(names, f.name)
		}
	}
	return names
}
