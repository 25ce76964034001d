// Package blobstore abstracts where trained models are published.
//
// A BlobStore holds immutable model blobs and small pointer blobs such as
// a model's CURRENT manifest. Implementations must be safe for concurrent
// use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, reads are memory-mapped
//   - MemoryStore: in-process map, for tests
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - s3.DDBCommitStore: S3 plus a DynamoDB table for CURRENT pointers
//   - minio.Store: MinIO and other S3-compatible services
//
// Blobs implement io.ReaderAt, so a blob can be scanned with
// io.NewSectionReader or split into line-aligned corpus partitions.
package blobstore
