package persistence

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"
)

// ErrUnalignedAccess is returned when attempting unaligned memory access.
var ErrUnalignedAccess = errors.New("unaligned memory access detected")

var littleEndian = isLittleEndian()

// isLittleEndian checks if the system is little-endian.
func isLittleEndian() bool {
	var test uint16 = 0x0001
	firstByte := *(*byte)(unsafe.Pointer(&test)) //nolint:gosec // endianness probe
	return firstByte == 1
}

// validateFloat32SliceAlignment checks if a float32 slice is properly aligned.
func validateFloat32SliceAlignment(vec []float32) error {
	if len(vec) == 0 {
		return nil
	}

	ptr := uintptr(unsafe.Pointer(&vec[0])) //nolint:gosec // alignment probe
	if ptr%4 != 0 {
		return fmt.Errorf("%w: float32 slice at address 0x%x", ErrUnalignedAccess, ptr)
	}

	return nil
}

// float32Bytes views vec as raw bytes. Only valid on little-endian hosts.
func float32Bytes(vec []float32) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&vec[0])), len(vec)*4) //nolint:gosec // zero-copy view
}

// PlatformInfo returns information about the current platform.
func PlatformInfo() string {
	endian := "little-endian"
	if !littleEndian {
		endian = "big-endian"
	}
	return fmt.Sprintf("GOOS=%s GOARCH=%s endianness=%s", runtime.GOOS, runtime.GOARCH, endian)
}
