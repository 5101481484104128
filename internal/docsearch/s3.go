package docsearch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	// DefaultBucket holds the SOP documents.
	DefaultBucket = "sopdocuments"
	// maxObjectBytes bounds a single document read.
	maxObjectBytes = 4 << 20
)

var textSuffixes = []string{".txt", ".md", ".markdown", ".csv", ".json"}

type S3StoreConfig struct {
	Logger *slog.Logger
	Bucket string
	Prefix string
	Region string
	// Endpoint points at an S3-compatible service instead of AWS.
	Endpoint  string
	AccessKey string
	SecretKey string
}

// S3Store reads text documents from an S3 bucket.
type S3Store struct {
	log    *slog.Logger
	client *s3.Client
	bucket string
	prefix string
}

func NewS3Store(ctx context.Context, cfg S3StoreConfig) (*S3Store, error) {
	bucket := cfg.Bucket
	if bucket == "" {
		bucket = DefaultBucket
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	opts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		log:    log,
		client: client,
		bucket: bucket,
		prefix: cfg.Prefix,
	}, nil
}

// Ping checks that the bucket is reachable with the configured credentials.
func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("failed to reach bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Documents downloads every text object in the bucket. Objects that cannot be
// read are skipped and logged.
func (s *S3Store) Documents(ctx context.Context) ([]Document, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if s.prefix != "" {
		input.Prefix = aws.String(s.prefix)
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list bucket %s: %w", s.bucket, err)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil && isText(*obj.Key) {
				keys = append(keys, *obj.Key)
			}
		}
	}

	docs := make([]Document, 0, len(keys))
	for _, key := range keys {
		text, err := s.read(ctx, key)
		if err != nil {
			s.log.Warn("docsearch: skipping object", "bucket", s.bucket, "key", key, "error", err)
			continue
		}
		docs = append(docs, Document{Key: key, Text: text})
	}
	s.log.Debug("docsearch: loaded documents", "bucket", s.bucket, "count", len(docs))
	return docs, nil
}

func (s *S3Store) read(ctx context.Context, key string) (string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", key, err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(io.LimitReader(out.Body, maxObjectBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(b), nil
}

func isText(key string) bool {
	k := strings.ToLower(key)
	for _, suf := range textSuffixes {
		if strings.HasSuffix(k, suf) {
			return true
		}
	}
	return false
}
