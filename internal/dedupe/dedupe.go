//go:build linux

// Package dedupe drives the FIDEDUPERANGE ioctl across an arbitrarily large
// source range and an arbitrarily large destination set, working around the
// kernel's per-call window and destination-count limits.
package dedupe

import (
	"fmt"
	"math"

	"golang.org/x/sys/unix"

	"github.com/octylFractal/dedupetool/internal/ioctlfs"
)

// Per-call kernel limits this driver windows/chunks around.
const (
	MaxWindowBytes = 16 * 1024 * 1024
	MaxDests       = 100
)

// ByteRange is a half-open [Start, End) range of byte offsets in the source
// file.
type ByteRange struct {
	Start, End uint64
}

// Len returns the number of bytes covered by the range.
func (r ByteRange) Len() uint64 {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// DedupeRequest names one destination file and the offset within it that is
// expected to hold the same bytes as ByteRange.Start in the source.
type DedupeRequest struct {
	DestPath   string
	DestOffset uint64
}

// ResponseKind classifies how the kernel responded to one destination for
// one window.
type ResponseKind int

const (
	RangeSame ResponseKind = iota
	RangeDiffers
	RangeError
)

// DedupeResponse is the per-destination, per-window result of one
// FIDEDUPERANGE call.
type DedupeResponse struct {
	Kind         ResponseKind
	BytesDeduped uint64
	Err          error
}

// DedupeFiles deduplicates srcRange of src against every destination in
// requests, generic over the caller's own key type K (typically a path or a
// target.FileOffset). Every window issues one FIDEDUPERANGE call per
// at-most-MaxDests chunk of destinations; src and destination offsets are
// aligned down to the filesystem's block size before being handed to the
// kernel, since FIDEDUPERANGE requires block-aligned offsets.
//
// On success, the returned map has exactly the same key set as requests,
// each with one DedupeResponse per window processed. Any failure to open a
// destination file aborts the whole call; partial results are discarded and
// the OS error is returned directly.
func DedupeFiles[K comparable](src *unix.Stat_t, srcFd int, srcRange ByteRange, requests map[K]DedupeRequest) (map[K][]DedupeResponse, error) {
	blkSize := uint64(src.Blksize)
	if blkSize == 0 {
		blkSize = 4096
	}

	result := make(map[K][]DedupeResponse, len(requests))
	for k := range requests {
		result[k] = nil
	}

	keys := make([]K, 0, len(requests))
	for k := range requests {
		keys = append(keys, k)
	}

	windowStart := srcRange.Start
	for windowStart < srcRange.End {
		windowLen := srcRange.End - windowStart
		if windowLen > MaxWindowBytes {
			windowLen = MaxWindowBytes
		}
		alignedSrcOffset := alignDown(windowStart, blkSize)
		deltaFromStart := windowStart - srcRange.Start

		for chunkBase := 0; chunkBase < len(keys); chunkBase += MaxDests {
			chunkEnd := chunkBase + MaxDests
			if chunkEnd > len(keys) {
				chunkEnd = len(keys)
			}
			chunkKeys := keys[chunkBase:chunkEnd]

			infos, keyForInfo, openedFds, err := openDestinations(requests, chunkKeys, deltaFromStart, blkSize)
			if err != nil {
				return nil, err
			}

			req := &ioctlfs.DedupeRange{
				Src_offset: alignedSrcOffset,
				Src_length: windowLen,
				Info:       infos,
			}
			ioctlErr := ioctlfs.IoctlDedupeRange(srcFd, req)
			for _, fd := range openedFds {
				_ = unix.Close(fd)
			}
			if ioctlErr != nil {
				return nil, fmt.Errorf("FIDEDUPERANGE ioctl: %w", ioctlErr)
			}

			for i, info := range req.Info {
				result[keyForInfo[i]] = append(result[keyForInfo[i]], classifyStatus(info))
			}
		}

		windowStart += windowLen
	}

	return result, nil
}

func openDestinations[K comparable](
	requests map[K]DedupeRequest,
	chunkKeys []K,
	deltaFromStart uint64,
	blkSize uint64,
) (infos []ioctlfs.DedupeRangeInfo, keyForInfo []K, openedFds []int, err error) {
	infos = make([]ioctlfs.DedupeRangeInfo, 0, len(chunkKeys))
	keyForInfo = make([]K, 0, len(chunkKeys))
	openedFds = make([]int, 0, len(chunkKeys))

	for _, k := range chunkKeys {
		req := requests[k]
		fd, openErr := unix.Open(req.DestPath, unix.O_WRONLY, 0)
		if openErr != nil {
			for _, f := range openedFds {
				_ = unix.Close(f)
			}
			return nil, nil, nil, fmt.Errorf("open destination %s: %w", req.DestPath, openErr)
		}
		openedFds = append(openedFds, fd)
		keyForInfo = append(keyForInfo, k)

		destOffset := alignDown(req.DestOffset+deltaFromStart, blkSize)
		infos = append(infos, ioctlfs.DedupeRangeInfo{
			Dest_fd:     int64(fd),
			Dest_offset: destOffset,
			// Sentinel-poison the output fields so a kernel that somehow
			// leaves them untouched can't be mistaken for a successful
			// dedupe.
			Bytes_deduped: 0,
			Status:        math.MaxInt32,
		})
	}
	return infos, keyForInfo, openedFds, nil
}

func classifyStatus(info ioctlfs.DedupeRangeInfo) DedupeResponse {
	status := info.Status
	if status < 0 {
		return DedupeResponse{Kind: RangeError, Err: unix.Errno(-status)}
	}
	switch status {
	case ioctlfs.FILE_DEDUPE_RANGE_DIFFERS:
		return DedupeResponse{Kind: RangeDiffers}
	case ioctlfs.FILE_DEDUPE_RANGE_SAME:
		if info.Bytes_deduped == 0 {
			// The kernel can report "same" with zero bytes deduped at a
			// destination that raced a concurrent write; treat it the same
			// as RangeDiffers rather than counting phantom savings.
			return DedupeResponse{Kind: RangeDiffers}
		}
		return DedupeResponse{Kind: RangeSame, BytesDeduped: info.Bytes_deduped}
	default:
		panic(fmt.Sprintf("unexpected FIDEDUPERANGE status %d", status))
	}
}

func alignDown(v, align uint64) uint64 {
	return v - (v % align)
}
