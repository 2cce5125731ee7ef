package main

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/hupe1980/rstar"
	"github.com/hupe1980/rstar/blobstore"
	miniostore "github.com/hupe1980/rstar/blobstore/minio"
	s3store "github.com/hupe1980/rstar/blobstore/s3"
	"github.com/hupe1980/rstar/internal/config"
)

// openBackend maps the storage section of the configuration to a backend.
func openBackend(ctx context.Context, cfg config.StorageConfig) (rstar.Backend, error) {
	switch strings.ToLower(cfg.Backend) {
	case "memory":
		return rstar.Memory(), nil
	case "local":
		return rstar.Local(cfg.Path), nil
	case "sqlite":
		return rstar.SQLite(cfg.Path), nil
	case "minio":
		store, err := miniostore.New(ctx, miniostore.Config{
			Endpoint:     cfg.Endpoint,
			AccessKey:    cfg.AccessKey,
			SecretKey:    cfg.SecretKey,
			Secure:       cfg.Secure,
			Bucket:       cfg.Bucket,
			Prefix:       cfg.Prefix,
			CreateBucket: true,
		})
		if err != nil {
			return rstar.Backend{}, err
		}
		return rstar.Remote(store), nil
	case "s3":
		store, err := s3store.New(ctx, cfg.Bucket,
			s3store.WithPrefix(cfg.Prefix),
			s3store.WithRegion(cfg.Region),
			s3store.WithEndpoint(cfg.Endpoint),
		)
		if err != nil {
			return rstar.Backend{}, err
		}
		var blobs blobstore.BlobStore = store
		if cfg.DDBTable != "" {
			var loadOpts []func(*awsconfig.LoadOptions) error
			if cfg.Region != "" {
				loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
			}
			awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
			if err != nil {
				return rstar.Backend{}, fmt.Errorf("load aws config: %w", err)
			}
			baseURI := "s3://" + cfg.Bucket + "/" + strings.Trim(cfg.Prefix, "/")
			blobs = s3store.NewDDBMetaStore(store, dynamodb.NewFromConfig(awsCfg), cfg.DDBTable, baseURI)
		}
		return rstar.Remote(blobs), nil
	default:
		return rstar.Backend{}, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
