// Package minio stores blobs on MinIO or any other S3-compatible server
// (Ceph, Garage, SeaweedFS) through the MinIO client, without the AWS SDK.
//
//	store, err := minio.New(ctx, minio.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	    Bucket:    "trees",
//	    Prefix:    "cities",
//	})
package minio
