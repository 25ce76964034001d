// Package corpus reads training text.
//
// Lines optionally start with a float weight followed by whitespace
// separated tokens. For training, a file is split into line-aligned byte
// ranges, one per worker, and each LineReader cycles through its range
// forever.
package corpus
