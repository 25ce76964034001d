package mem

import (
	"unsafe"
)

// Alignment is the byte alignment of every matrix and vector buffer (64 bytes).
const Alignment = 64

// floatsPerLine is the number of float32 values in one aligned line.
const floatsPerLine = Alignment / 4

// AllocAligned allocates a byte slice of the given size with 64-byte alignment.
// The returned slice is guaranteed to start at a memory address divisible by 64.
//
// The allocation is slightly larger than requested; the underlying array is
// kept alive by the returned slice.
func AllocAligned(size int) []byte {
	if size <= 0 {
		return nil
	}

	buf := make([]byte, size+Alignment)

	ptr := unsafe.Pointer(&buf[0]) //nolint:gosec // unsafe is required for memory alignment
	addr := uintptr(ptr)
	offset := (Alignment - (addr & (Alignment - 1))) & (Alignment - 1)

	return buf[offset : offset+uintptr(size)]
}

// AllocAlignedFloat32 allocates a zeroed float32 slice of the given size with
// 64-byte alignment.
func AllocAlignedFloat32(size int) []float32 {
	if size <= 0 {
		return nil
	}

	byteSlice := AllocAligned(size * 4)

	// 64-byte alignment implies the 4-byte alignment float32 needs.
	ptr := unsafe.Pointer(&byteSlice[0])       //nolint:gosec // unsafe is required for memory alignment
	return unsafe.Slice((*float32)(ptr), size) //nolint:gosec // unsafe is required for memory alignment
}

// PaddedStride returns the row stride, in float32 elements, that keeps every
// row of a cols-wide matrix on a 64-byte boundary.
func PaddedStride(cols int) int {
	if cols <= 0 {
		return 0
	}
	return (cols + floatsPerLine - 1) / floatsPerLine * floatsPerLine
}
