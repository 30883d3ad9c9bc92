// Package minio stores matrix blobs in MinIO or any other S3-compatible
// service (Ceph, Garage, SeaweedFS) through the native MinIO client.
//
// # Basic Usage
//
//	client, err := minioblob.NewClient(minioblob.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := minioblob.EnsureBucket(ctx, client, "wordgain", ""); err != nil {
//	    log.Fatal(err)
//	}
//	blobs := minioblob.NewStore(client, "wordgain", "en-5/")
//
// MinIO offers no conditional write on CURRENT; run one builder per prefix.
package minio
