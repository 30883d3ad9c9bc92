// Package s3 stores matrix blobs in Amazon S3.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion("eu-central-1"))
//	client := awss3.NewFromConfig(cfg)
//	blobs := s3.NewStore(client, "my-bucket", "wordgain/en-5")
//
// S3 has no compare-and-swap, so two builders sharing a prefix could both
// rewrite CURRENT. [DDBCommitStore] routes CURRENT through a DynamoDB
// conditional write instead:
//
//	blobs := s3.NewDDBCommitStore(s3.NewStore(client, bucket, prefix),
//	    dynamodb.NewFromConfig(cfg), "wordgain-commits", "s3://"+bucket+"/"+prefix)
//
// # Features
//
//   - Range reads
//   - CRC32C-checked single puts, multipart uploads for large blobs
//   - Automatic pagination for listing
package s3
