package main

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/hupe1980/lowcard/blobstore"
	s3store "github.com/hupe1980/lowcard/blobstore/s3"
)

func addStoreFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.String("s3-bucket", "", "Keep parts in this S3 bucket instead of a directory")
	f.String("s3-prefix", "", "Key prefix inside the S3 bucket")
	f.String("s3-region", "", "AWS region (default: from the environment)")
}

// openStore returns the store picked by the --s3-* flags, or the local store
// rooted at dir. With neither a bucket nor a dir, parts stay in memory.
func openStore(cmd *cobra.Command, dir string) (blobstore.BlobStore, error) {
	f := cmd.Flags()
	bucket, _ := f.GetString("s3-bucket")
	if bucket == "" {
		if dir == "" {
			return blobstore.NewMemoryStore(), nil
		}
		return blobstore.NewLocalStore(dir), nil
	}
	if f.Changed("dir") {
		return nil, errors.New("--dir and --s3-bucket are mutually exclusive")
	}
	prefix, _ := f.GetString("s3-prefix")
	region, _ := f.GetString("s3-region")

	var loadOpts []func(*config.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(cmd.Context(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return s3store.NewStore(s3.NewFromConfig(cfg), bucket, prefix), nil
}
