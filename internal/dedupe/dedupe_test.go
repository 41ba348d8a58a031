//go:build linux

package dedupe

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/octylFractal/dedupetool/internal/ioctlfs"
)

func TestAlignDown(t *testing.T) {
	assert.Equal(t, uint64(0), alignDown(0, 4096))
	assert.Equal(t, uint64(4096), alignDown(4096, 4096))
	assert.Equal(t, uint64(4096), alignDown(4100, 4096))
	assert.Equal(t, uint64(4096), alignDown(8191, 4096))
	assert.Equal(t, uint64(0), alignDown(1, 4096))
}

func TestClassifyStatusSame(t *testing.T) {
	info := ioctlfs.DedupeRangeInfo{Status: ioctlfs.FILE_DEDUPE_RANGE_SAME, Bytes_deduped: 4096}
	resp := classifyStatus(info)
	assert.Equal(t, RangeSame, resp.Kind)
	assert.Equal(t, uint64(4096), resp.BytesDeduped)
}

func TestClassifyStatusSameButZeroBytesIsReclassifiedAsDiffers(t *testing.T) {
	info := ioctlfs.DedupeRangeInfo{Status: ioctlfs.FILE_DEDUPE_RANGE_SAME, Bytes_deduped: 0}
	resp := classifyStatus(info)
	assert.Equal(t, RangeDiffers, resp.Kind)
}

func TestClassifyStatusDiffers(t *testing.T) {
	info := ioctlfs.DedupeRangeInfo{Status: ioctlfs.FILE_DEDUPE_RANGE_DIFFERS}
	resp := classifyStatus(info)
	assert.Equal(t, RangeDiffers, resp.Kind)
}

func TestClassifyStatusNegativeIsErrno(t *testing.T) {
	info := ioctlfs.DedupeRangeInfo{Status: -int32(1) /* EPERM */}
	resp := classifyStatus(info)
	assert.Equal(t, RangeError, resp.Kind)
	assert.Error(t, resp.Err)
}

func TestClassifyStatusUnknownPanics(t *testing.T) {
	info := ioctlfs.DedupeRangeInfo{Status: math.MaxInt32}
	assert.Panics(t, func() { classifyStatus(info) })
}

func TestWindowAndDestChunkConstants(t *testing.T) {
	assert.Equal(t, 16*1024*1024, MaxWindowBytes)
	assert.Equal(t, 100, MaxDests)
}
