// Package minio publishes models to MinIO and other S3-compatible object
// stores through the MinIO client.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "models", "prod/")
//	err = model.Publish(ctx, store, "news")
//
// Blobs are read with ranged GETs and uploaded with streaming
// PutObject calls. No AWS SDK is required.
package minio
