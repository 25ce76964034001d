package linalg

import (
	"os"
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// Backend identifies a Kernels implementation.
type Backend uint8

const (
	// Generic is the portable pure Go backend.
	Generic Backend = iota
	// BLAS is the gonum blas32 backend.
	BLAS
)

// String returns the string representation of a Backend.
func (b Backend) String() string {
	switch b {
	case Generic:
		return "generic"
	case BLAS:
		return "blas"
	default:
		return "unknown"
	}
}

// ParseBackend parses a string into a Backend value.
func ParseBackend(s string) (Backend, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "generic":
		return Generic, true
	case "blas":
		return BLAS, true
	default:
		return Generic, false
	}
}

// Kernels is the linear-algebra capability consumed by the model and the
// quantizer. Slices passed to a single call must have equal length.
// Implementations must be safe for concurrent use.
type Kernels interface {
	// Dot returns the dot product of a and b.
	Dot(a, b []float32) float32
	// Axpy computes y += alpha*x.
	Axpy(alpha float32, x, y []float32)
	// Scale computes x *= alpha.
	Scale(alpha float32, x []float32)
	// Norm returns the L2 norm of x.
	Norm(x []float32) float32
	// SquaredL2 returns the squared euclidean distance between a and b.
	SquaredL2(a, b []float32) float32
	// Backend reports which backend this is.
	Backend() Backend
}

// Package-level state, initialized once at package init.
var (
	active      Backend
	hasOverride bool
)

func init() {
	if override := os.Getenv("SUBWORD_LINALG"); override != "" {
		if b, ok := ParseBackend(override); ok {
			hasOverride = true
			active = b
			return
		}
	}

	active = selectBest()
}

// selectBest prefers BLAS where gonum ships vectorized float32 kernels.
func selectBest() Backend {
	switch runtime.GOARCH {
	case "amd64":
		if cpu.X86.HasSSE3 {
			return BLAS
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			return BLAS
		}
	}
	return Generic
}

// Active returns the backend selected at init.
func Active() Backend { return active }

// IsOverridden returns true if SUBWORD_LINALG was set to a known backend.
func IsOverridden() bool { return hasOverride }

// Default returns the Kernels of the active backend.
func Default() Kernels { return For(active) }

// For returns the Kernels of backend b. Unknown backends fall back to Generic.
func For(b Backend) Kernels {
	if b == BLAS {
		return blasKernels{}
	}
	return genericKernels{}
}
