// Package resource bounds the memory, concurrency and IO used by training
// jobs.
//
// A Controller is shared by every model that should draw from the same
// budget:
//
//   - Memory: embedding matrices reserve their size before allocation.
//     AcquireMemory fails fast with ErrMemoryLimitExceeded.
//   - Jobs: Train and Quantize hold one job slot while they run, so a
//     shared controller limits how many run at once.
//   - IO: model saves and loads can be throttled with a token bucket via
//     NewRateLimitedWriter and NewRateLimitedReader.
//
// All methods are safe for concurrent use, and a nil *Controller is a
// valid no-op controller.
package resource
