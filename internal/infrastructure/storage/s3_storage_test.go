package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	appinventory "github.com/grocerypos/backend/internal/application/inventory"
	"github.com/grocerypos/backend/internal/domain/shared/strategy"
	"github.com/grocerypos/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// memoryBucket is an in-memory stand-in for one S3 bucket
type memoryBucket struct {
	mu      sync.Mutex
	exists  bool
	objects map[string][]byte
	ctypes  map[string]string
	getErr  error
}

func newMemoryBucket() *memoryBucket {
	return &memoryBucket{objects: map[string][]byte{}, ctypes: map[string]string{}}
}

func (b *memoryBucket) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.exists {
		return nil, &types.NotFound{}
	}
	return &s3.HeadBucketOutput{}, nil
}

func (b *memoryBucket) CreateBucket(context.Context, *s3.CreateBucketInput, ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.exists {
		return nil, &types.BucketAlreadyOwnedByYou{}
	}
	b.exists = true
	return &s3.CreateBucketOutput{}, nil
}

func (b *memoryBucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	raw, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[aws.ToString(in.Key)] = raw
	b.ctypes[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (b *memoryBucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.getErr != nil {
		return nil, b.getErr
	}
	raw, ok := b.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(raw))}, nil
}

func TestNewSnapshotArchive_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.StorageConfig
		wantErr string
	}{
		{"nil config", nil, "configuration is required"},
		{"missing bucket", &config.StorageConfig{AccessKey: "k", SecretKey: "s"}, "bucket is required"},
		{"missing access key", &config.StorageConfig{Bucket: "b", SecretKey: "s"}, "access key is required"},
		{"missing secret key", &config.StorageConfig{Bucket: "b", AccessKey: "k"}, "secret key is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSnapshotArchive(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("valid config", func(t *testing.T) {
		archive, err := NewSnapshotArchive(&config.StorageConfig{
			Bucket:       "pos-archive",
			AccessKey:    "test-key",
			SecretKey:    "test-secret",
			Endpoint:     "localhost:9000",
			UsePathStyle: true,
			Prefix:       "valuation",
		}, WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)
		assert.Equal(t, "pos-archive", archive.Bucket())
		assert.Equal(t, "valuation/2026-10-17/FIFO.json", archive.Key("2026-10-17", strategy.CostMethodFIFO))
	})
}

func TestSnapshotArchive_SetThenGet(t *testing.T) {
	bucket := newMemoryBucket()
	archive := newSnapshotArchive(bucket, "pos-archive", "valuation/")
	ctx := context.Background()

	got, err := archive.Get(ctx, "2026-10-17", strategy.CostMethodAverage)
	require.NoError(t, err)
	assert.Nil(t, got, "missing object is a miss, not an error")

	report := &appinventory.ValuationReport{
		Method:     strategy.CostMethodAverage,
		Date:       "2026-10-17",
		AsOf:       time.Date(2026, 10, 17, 23, 59, 59, 999999000, time.UTC),
		TotalValue: decimal.RequireFromString("1650"),
		Products: []appinventory.ProductValuation{{
			SKU:       "RICE",
			QtyOnHand: decimal.RequireFromString("15"),
			Value:     decimal.RequireFromString("1650"),
			UnitCost:  decimal.RequireFromString("110"),
		}},
	}
	require.NoError(t, archive.Set(ctx, report))
	assert.Equal(t, "application/json", bucket.ctypes["valuation/2026-10-17/AVERAGE.json"])

	got, err = archive.Get(ctx, "2026-10-17", strategy.CostMethodAverage)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.TotalValue.Equal(report.TotalValue))
	require.Len(t, got.Products, 1)
	assert.Equal(t, "RICE", got.Products[0].SKU)
	assert.True(t, got.AsOf.Equal(report.AsOf))
}

func TestSnapshotArchive_SkipsLiveReports(t *testing.T) {
	bucket := newMemoryBucket()
	archive := newSnapshotArchive(bucket, "pos-archive", "")

	require.NoError(t, archive.Set(context.Background(), &appinventory.ValuationReport{Method: strategy.CostMethodFIFO}))
	assert.Empty(t, bucket.objects)
}

func TestSnapshotArchive_GetErrors(t *testing.T) {
	bucket := newMemoryBucket()
	archive := newSnapshotArchive(bucket, "pos-archive", "")
	ctx := context.Background()

	bucket.getErr = errors.New("api error NoSuchKey: The specified key does not exist")
	got, err := archive.Get(ctx, "2026-10-17", strategy.CostMethodFIFO)
	require.NoError(t, err)
	assert.Nil(t, got)

	bucket.getErr = errors.New("connection reset")
	_, err = archive.Get(ctx, "2026-10-17", strategy.CostMethodFIFO)
	assert.Error(t, err)

	bucket.getErr = nil
	bucket.objects["2026-10-17/FIFO.json"] = []byte("{not json")
	_, err = archive.Get(ctx, "2026-10-17", strategy.CostMethodFIFO)
	assert.ErrorContains(t, err, "decode")
}

func TestSnapshotArchive_EnsureBucket(t *testing.T) {
	bucket := newMemoryBucket()
	archive := newSnapshotArchive(bucket, "pos-archive", "")

	require.NoError(t, archive.EnsureBucket(context.Background()))
	assert.True(t, bucket.exists)
	require.NoError(t, archive.EnsureBucket(context.Background()))
}
