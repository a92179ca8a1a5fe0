package minio

import (
	"context"
	"errors"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/launch-radar/internal/config"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/launch-radar/pkg/errors"
)

type mockObjectAPI struct {
	mock.Mock
}

func (m *mockObjectAPI) BucketExists(ctx context.Context, bucket string) (bool, error) {
	args := m.Called(ctx, bucket)
	return args.Bool(0), args.Error(1)
}

func (m *mockObjectAPI) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	return m.Called(ctx, bucket, opts).Error(0)
}

func (m *mockObjectAPI) SetBucketLifecycle(ctx context.Context, bucket string, cfg *lifecycle.Configuration) error {
	return m.Called(ctx, bucket, cfg).Error(0)
}

func (m *mockObjectAPI) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucket, key, r, size, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *mockObjectAPI) StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	args := m.Called(ctx, bucket, key, opts)
	return args.Get(0).(minio.ObjectInfo), args.Error(1)
}

func (m *mockObjectAPI) ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	return m.Called(ctx, bucket, opts).Get(0).(<-chan minio.ObjectInfo)
}

func (m *mockObjectAPI) PresignedGetObject(ctx context.Context, bucket, key string, expiry time.Duration, params url.Values) (*url.URL, error) {
	args := m.Called(ctx, bucket, key, expiry, params)
	u, _ := args.Get(0).(*url.URL)
	return u, args.Error(1)
}

func (m *mockObjectAPI) RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error {
	return m.Called(ctx, bucket, key, opts).Error(0)
}

func testMinIOConfig() config.MinIOConfig {
	return config.MinIOConfig{
		Endpoint:       "localhost:9000",
		SnapshotBucket: "radar-snapshots",
		PresignExpiry:  15 * time.Minute,
		Enabled:        true,
	}
}

func newTestClient(api ObjectAPI) *Client {
	return NewClientWithAPI(api, testMinIOConfig(), logging.NewNopLogger())
}

func TestEnsureBucket_CreatesMissing(t *testing.T) {
	api := new(mockObjectAPI)
	api.On("BucketExists", mock.Anything, "radar-snapshots").Return(false, nil)
	api.On("MakeBucket", mock.Anything, "radar-snapshots", mock.Anything).Return(nil)
	api.On("SetBucketLifecycle", mock.Anything, "radar-snapshots", mock.MatchedBy(func(c *lifecycle.Configuration) bool {
		return len(c.Rules) == 1 && c.Rules[0].RuleFilter.Prefix == SnapshotPrefix
	})).Return(nil)

	require.NoError(t, newTestClient(api).EnsureBucket(context.Background()))
	api.AssertExpectations(t)
}

func TestEnsureBucket_ExistingSkipsCreate(t *testing.T) {
	api := new(mockObjectAPI)
	api.On("BucketExists", mock.Anything, "radar-snapshots").Return(true, nil)
	api.On("SetBucketLifecycle", mock.Anything, "radar-snapshots", mock.Anything).Return(errors.New("not supported"))

	require.NoError(t, newTestClient(api).EnsureBucket(context.Background()))
	api.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnsureBucket_CreateFails(t *testing.T) {
	api := new(mockObjectAPI)
	api.On("BucketExists", mock.Anything, "radar-snapshots").Return(false, nil)
	api.On("MakeBucket", mock.Anything, "radar-snapshots", mock.Anything).Return(errors.New("denied"))

	err := newTestClient(api).EnsureBucket(context.Background())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeStorageError))
}

func TestHealthCheck(t *testing.T) {
	api := new(mockObjectAPI)
	api.On("BucketExists", mock.Anything, "radar-snapshots").Return(true, nil).Once()
	api.On("BucketExists", mock.Anything, "radar-snapshots").Return(false, nil).Once()
	api.On("BucketExists", mock.Anything, "radar-snapshots").Return(false, errors.New("dial tcp")).Once()

	c := newTestClient(api)
	assert.NoError(t, c.HealthCheck(context.Background()))
	assert.Error(t, c.HealthCheck(context.Background()))
	assert.Error(t, c.HealthCheck(context.Background()))
}

func TestNewClientWithAPI_DefaultsPresignExpiry(t *testing.T) {
	cfg := testMinIOConfig()
	cfg.PresignExpiry = 0
	c := NewClientWithAPI(new(mockObjectAPI), cfg, logging.NewNopLogger())
	assert.Equal(t, config.DefaultPresignExpiry, c.cfg.PresignExpiry)
}
