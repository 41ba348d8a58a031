package extents

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/octylFractal/dedupetool/internal/ioctlfs"
)

func TestDecodeFlagsKnownBits(t *testing.T) {
	raw := ioctlfs.FIEMAP_EXTENT_LAST | ioctlfs.FIEMAP_EXTENT_SHARED
	flags := decodeFlags(raw)

	assert.Len(t, flags, 2)
	_, hasLast := flags[ExtentFlagLast]
	_, hasShared := flags[ExtentFlagShared]
	assert.True(t, hasLast)
	assert.True(t, hasShared)
}

func TestDecodeFlagsUnknownBitPreserved(t *testing.T) {
	const unknownBit = uint32(1) << 30
	flags := decodeFlags(unknownBit)

	assert.Len(t, flags, 1)
	_, ok := flags[UnknownExtentFlag(unknownBit)]
	assert.True(t, ok)
}

func TestDecodeFlagsMixedKnownAndUnknown(t *testing.T) {
	const unknownBit = uint32(1) << 29
	raw := ioctlfs.FIEMAP_EXTENT_MERGED | unknownBit
	flags := decodeFlags(raw)

	assert.Len(t, flags, 2)
}

func TestDecodeFlagsTwoSimultaneousUnknownBitsStayDistinct(t *testing.T) {
	const bitA = uint32(1) << 29
	const bitB = uint32(1) << 30
	flags := decodeFlags(bitA | bitB)

	// Each unrecognized bit must surface as its own flag, not folded into
	// one combined-mask entry.
	assert.Len(t, flags, 2)
	_, hasA := flags[UnknownExtentFlag(bitA)]
	_, hasB := flags[UnknownExtentFlag(bitB)]
	assert.True(t, hasA)
	assert.True(t, hasB)
	_, hasCombined := flags[UnknownExtentFlag(bitA|bitB)]
	assert.False(t, hasCombined)
}

func TestDecodeFlagsZero(t *testing.T) {
	assert.Empty(t, decodeFlags(0))
}

func TestFlagStringsOrderingMatchesKnownOrder(t *testing.T) {
	e := Extent{Flags: decodeFlags(ioctlfs.FIEMAP_EXTENT_SHARED | ioctlfs.FIEMAP_EXTENT_LAST)}
	names := FlagStrings(e)
	assert.Equal(t, []string{"last", "shared"}, names)
}

func TestHasFlag(t *testing.T) {
	e := Extent{Flags: decodeFlags(ioctlfs.FIEMAP_EXTENT_DELALLOC)}
	assert.True(t, e.HasFlag(ExtentFlagDelalloc))
	assert.False(t, e.HasFlag(ExtentFlagShared))
}
