// Package s3 publishes models to Amazon S3.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("models/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	err = model.Publish(ctx, store, "news")
//
// Writers that race on the same model should wrap the store in a
// DDBCommitStore so CURRENT pointer updates become conditional writes.
//
// # Features
//
//   - Range reads, so blobs satisfy io.ReaderAt
//   - Multipart streaming uploads with CRC32C checksums
//   - Automatic pagination for listing
//   - Configurable key prefix
package s3
