// Package storage archives immutable reports in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	appinventory "github.com/grocerypos/backend/internal/application/inventory"
	"github.com/grocerypos/backend/internal/domain/shared/strategy"
	infraconfig "github.com/grocerypos/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// objectAPI is the part of *s3.Client the archive uses
type objectAPI interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// SnapshotArchive keeps past-day valuation snapshots as JSON objects, one
// per date and method. It is the slowest and most durable snapshot tier:
// entries never expire because a past day's ledger never changes.
type SnapshotArchive struct {
	client objectAPI
	bucket string
	prefix string
	logger *zap.Logger
}

// SnapshotArchiveOption is a functional option for configuring SnapshotArchive
type SnapshotArchiveOption func(*SnapshotArchive)

// WithLogger sets a custom logger for SnapshotArchive
func WithLogger(logger *zap.Logger) SnapshotArchiveOption {
	return func(a *SnapshotArchive) {
		a.logger = logger
	}
}

// NewSnapshotArchive creates an archive on any S3-compatible backend (AWS S3, MinIO, RustFS)
func NewSnapshotArchive(cfg *infraconfig.StorageConfig, opts ...SnapshotArchiveOption) (*SnapshotArchive, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid storage endpoint: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})
	return newSnapshotArchive(client, cfg.Bucket, cfg.Prefix, opts...), nil
}

func newSnapshotArchive(client objectAPI, bucket, prefix string, opts ...SnapshotArchiveOption) *SnapshotArchive {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	a := &SnapshotArchive{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// EnsureBucket creates the bucket if it doesn't exist. Call it once at startup.
func (a *SnapshotArchive) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	a.logger.Info("Creating archive bucket", zap.String("bucket", a.bucket))
	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(a.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Get returns the archived snapshot, or nil when none was archived
func (a *SnapshotArchive) Get(ctx context.Context, date string, method strategy.CostMethod) (*appinventory.ValuationReport, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.Key(date, method)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read archived snapshot: %w", err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read archived snapshot: %w", err)
	}
	var report appinventory.ValuationReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("failed to decode archived snapshot: %w", err)
	}
	return &report, nil
}

// Set archives report under its date and method
func (a *SnapshotArchive) Set(ctx context.Context, report *appinventory.ValuationReport) error {
	if report == nil || report.Date == "" {
		return nil
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	key := a.Key(report.Date, report.Method)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to archive snapshot: %w", err)
	}
	a.logger.Debug("valuation snapshot archived", zap.String("key", key))
	return nil
}

// Key returns the object key of one snapshot, e.g. "valuation/2026-10-17/FIFO.json"
func (a *SnapshotArchive) Key(date string, method strategy.CostMethod) string {
	return a.prefix + date + "/" + string(method) + ".json"
}

// Bucket returns the bucket name
func (a *SnapshotArchive) Bucket() string {
	return a.bucket
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return true
	}
	// some S3-compatible services only report it in the message
	return strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "NotFound")
}

var _ appinventory.SnapshotCache = (*SnapshotArchive)(nil)
