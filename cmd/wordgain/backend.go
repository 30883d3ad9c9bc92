package main

import (
	"context"
	"fmt"
	"path"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hupe1980/wordgain"
	"github.com/hupe1980/wordgain/blobstore"
	miniostore "github.com/hupe1980/wordgain/blobstore/minio"
	s3store "github.com/hupe1980/wordgain/blobstore/s3"
	"github.com/hupe1980/wordgain/config"
	"github.com/hupe1980/wordgain/dictionary"
	"github.com/hupe1980/wordgain/word"
)

// openBackend selects the matrix store configured in cfg.
func openBackend(ctx context.Context, cfg config.Store) (wordgain.Backend, error) {
	switch cfg.Kind {
	case config.StoreLocal:
		return wordgain.Local(cfg.Dir), nil
	case config.StoreMemory:
		return wordgain.Memory(), nil
	case config.StoreSQLite:
		return wordgain.SQLite(cfg.Path), nil
	case config.StoreS3:
		blobs, err := openS3(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return wordgain.Remote(blobs), nil
	case config.StoreMinIO:
		blobs, err := openMinIO(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return wordgain.Remote(blobs), nil
	default:
		return nil, fmt.Errorf("%w: unknown store kind %q", config.ErrInvalid, cfg.Kind)
	}
}

func openS3(ctx context.Context, cfg config.Store) (blobstore.BlobStore, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	st := s3store.NewStore(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix)
	if cfg.DDBTable == "" {
		return st, nil
	}
	baseURI := "s3://" + path.Join(cfg.Bucket, cfg.Prefix)
	return s3store.NewDDBCommitStore(st, dynamodb.NewFromConfig(awsCfg), cfg.DDBTable, baseURI), nil
}

func openMinIO(ctx context.Context, cfg config.Store) (blobstore.BlobStore, error) {
	client, err := miniostore.NewClient(miniostore.Config{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Region:    cfg.Region,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	if err := miniostore.EnsureBucket(ctx, client, cfg.Bucket, cfg.Region); err != nil {
		return nil, fmt.Errorf("ensure bucket %q: %w", cfg.Bucket, err)
	}
	return miniostore.NewStore(client, cfg.Bucket, cfg.Prefix), nil
}

// analyzerOptions maps cfg onto Analyzer options.
func (a *app) analyzerOptions() ([]wordgain.Option, error) {
	cfg := a.cfg

	compression, err := wordgain.ParseCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}
	strategy := wordgain.StrategyFilter
	if cfg.Strategy == "partition" {
		strategy = wordgain.StrategyPartition
	}

	return []wordgain.Option{
		wordgain.WithBatchSize(cfg.BatchSize),
		wordgain.WithResume(cfg.Resume),
		wordgain.WithWorkers(cfg.Workers),
		wordgain.WithMaxInFlight(cfg.MaxInFlight),
		wordgain.WithMemoryLimit(cfg.MemoryLimit),
		wordgain.WithStrategy(strategy),
		wordgain.WithCompression(compression),
		wordgain.WithRetry(cfg.Retry.Max, cfg.Retry.Backoff),
		wordgain.WithCacheSize(cfg.Store.CacheBytes),
		wordgain.WithKeepManifests(cfg.Store.KeepManifests),
		wordgain.WithLogger(a.logger),
		wordgain.WithMetricsCollector(a.metrics),
	}, nil
}

// loadDictionary reads the configured word list.
func (a *app) loadDictionary() (*word.Dictionary, error) {
	if a.cfg.Dictionary == "" {
		d := dictionary.Sample()
		if d.WordLength() != a.cfg.WordLength {
			return nil, word.Invalid("word_length", fmt.Sprint(a.cfg.WordLength),
				fmt.Sprintf("the built-in dictionary has %d-letter words", d.WordLength()))
		}
		return d, nil
	}
	return dictionary.Load(a.cfg.Dictionary, dictionary.WithLength(a.cfg.WordLength))
}

// open opens an Analyzer on the configured store. A nil dict reopens the
// stored table's dictionary.
func (a *app) open(ctx context.Context, dict *word.Dictionary) (*wordgain.Analyzer, error) {
	backend, err := openBackend(ctx, a.cfg.Store)
	if err != nil {
		return nil, err
	}
	opts, err := a.analyzerOptions()
	if err != nil {
		return nil, err
	}
	return wordgain.Open(ctx, backend, dict, opts...)
}
