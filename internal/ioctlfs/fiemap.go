//go:build linux

// Package ioctlfs wraps the two kernel ioctls this tool is built on,
// FS_IOC_FIEMAP and FIDEDUPERANGE, as thin typed Go functions. Neither
// caller-facing package (internal/extents, internal/dedupe) talks to the
// kernel directly; they go through here.
package ioctlfs

import (
	"fmt"
	"math"
	"unsafe"

	"golang.org/x/sys/unix"
)

// https://docs.kernel.org/filesystems/fiemap.html
// https://github.com/torvalds/linux/blob/master/include/uapi/linux/fiemap.h

const (
	FS_IOC_FIEMAP = 0xC020660B
)

// All constants from uapi/linux/fiemap.h.
const (
	FIEMAP_MAX_OFFSET = math.MaxUint64

	FIEMAP_FLAG_SYNC  = 0x00000001 // sync file data before map
	FIEMAP_FLAG_XATTR = 0x00000002 // map extended attribute tree
	FIEMAP_FLAG_CACHE = 0x00000004 // request caching of the extents

	FIEMAP_EXTENT_LAST           = 0x00000001 // Last extent in file.
	FIEMAP_EXTENT_UNKNOWN        = 0x00000002 // Data location unknown.
	FIEMAP_EXTENT_DELALLOC       = 0x00000004 // Location still pending. Sets EXTENT_UNKNOWN.
	FIEMAP_EXTENT_ENCODED        = 0x00000008 // Data can not be read while fs is unmounted.
	FIEMAP_EXTENT_DATA_ENCRYPTED = 0x00000080 // Data is encrypted by fs.
	FIEMAP_EXTENT_NOT_ALIGNED    = 0x00000100 // Extent offsets may not be block aligned.
	FIEMAP_EXTENT_DATA_INLINE    = 0x00000200 // Data mixed with metadata. Sets EXTENT_NOT_ALIGNED.
	FIEMAP_EXTENT_DATA_TAIL      = 0x00000400 // Multiple files in block. Sets EXTENT_NOT_ALIGNED.
	FIEMAP_EXTENT_UNWRITTEN      = 0x00000800 // Space allocated, but no data (i.e. zero).
	FIEMAP_EXTENT_MERGED         = 0x00001000 // File does not natively support extents.
	FIEMAP_EXTENT_SHARED         = 0x00002000 // Space shared with other files.
)

// wireFiemapSize and wireExtentSize are the packed, on-the-wire sizes of
// struct fiemap and struct fiemap_extent as the kernel defines them; they
// fix the layout of the byte buffer an ioctl request is built in.
const (
	wireFiemapSize = 32
	wireExtentSize = 56
)

// wireFiemap mirrors struct fiemap's header fields (everything up to the
// trailing fm_extents array) in kernel field order.
type wireFiemap struct {
	Start         uint64 // in
	Length        uint64 // in
	Flags         uint32 // in/out
	MappedExtents uint32 // out
	ExtentCount   uint32 // in
	Reserved      uint32
}

// wireExtent mirrors struct fiemap_extent; defined separately from
// FiemapExtent (rather than reused directly) so the wire layout stays pinned
// to the kernel struct even if FiemapExtent's own field order ever changes.
type wireExtent struct {
	Logical    uint64
	Physical   uint64
	Length     uint64
	reserved64 [2]uint64
	Flags      uint32
	reserved   [3]uint32
}

// Fiemap is the request/response pair for one FS_IOC_FIEMAP call.
type Fiemap struct {
	Start          uint64 // in
	Length         uint64 // in
	Flags          uint32 // in/out
	Mapped_extents uint32 // out
	Reserved       uint32
	Extents        []FiemapExtent // out, sized by the caller
}

// FiemapExtent mirrors struct fiemap_extent from uapi/linux/fiemap.h.
type FiemapExtent struct {
	Logical    uint64
	Physical   uint64
	Length     uint64
	Reserved64 [2]uint64
	Flags      uint32
	Reserved   [3]uint32
}

// fiemapBuffer is the raw byte region an FS_IOC_FIEMAP call reads and writes
// in place: a wireFiemap header immediately followed by extentCap
// wireExtent slots, matching the kernel's packed layout exactly.
type fiemapBuffer struct {
	bytes []byte
}

func newFiemapBuffer(extentCap int) fiemapBuffer {
	b := fiemapBuffer{bytes: make([]byte, wireFiemapSize+extentCap*wireExtentSize)}
	// make() guarantees alignment suitable for any type stored in the
	// slice's element type, which for []byte is only 1 byte; in practice
	// the allocator hands out 8-byte-aligned blocks at this size, but the
	// struct overlay below depends on it, so verify rather than assume.
	if uintptr(b.ptr())%8 != 0 {
		panic("ioctlfs: fiemap ioctl buffer is not 64-bit aligned")
	}
	return b
}

func (b fiemapBuffer) ptr() unsafe.Pointer {
	return unsafe.Pointer(&b.bytes[0])
}

func (b fiemapBuffer) header() *wireFiemap {
	return (*wireFiemap)(b.ptr())
}

func (b fiemapBuffer) extentAt(i int) *wireExtent {
	return (*wireExtent)(unsafe.Add(b.ptr(), wireFiemapSize+i*wireExtentSize))
}

func (b fiemapBuffer) loadRequest(req *Fiemap) {
	h := b.header()
	h.Start = req.Start
	h.Length = req.Length
	h.Flags = req.Flags
	h.MappedExtents = req.Mapped_extents
	h.ExtentCount = uint32(len(req.Extents))
	h.Reserved = req.Reserved
}

func (b fiemapBuffer) storeResponse(req *Fiemap) {
	h := b.header()
	req.Flags = h.Flags
	req.Mapped_extents = h.MappedExtents
	req.Reserved = h.Reserved
	for i := range req.Extents {
		e := b.extentAt(i)
		req.Extents[i] = FiemapExtent{
			Logical:    e.Logical,
			Physical:   e.Physical,
			Length:     e.Length,
			Reserved64: e.reserved64,
			Flags:      e.Flags,
			Reserved:   e.reserved,
		}
	}
}

// IoctlFiemap performs an FS_IOC_FIEMAP ioctl operation on a given fd.
//
// value.Extents is used purely as the output array (sized by the caller) so
// it can be reused across calls.
func IoctlFiemap(fd int, value *Fiemap) error {
	buf := newFiemapBuffer(len(value.Extents))
	buf.loadRequest(value)

	err := ioctlPtr(fd, FS_IOC_FIEMAP, buf.ptr())

	buf.storeResponse(value)
	return err
}

// ioctlPtr issues a raw ioctl(2) call with a pointer argument. x/sys/unix
// does not expose a FIEMAP-shaped ioctl helper, so this goes straight to
// SYS_IOCTL the same way x/sys/unix's own typed ioctl wrappers do internally.
func ioctlPtr(fd int, req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(arg))
	if errno != 0 {
		return fmt.Errorf("ioctl %#x: %w", req, errno)
	}
	return nil
}
