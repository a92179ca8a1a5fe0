// Package minio stores heatmap snapshots in an S3-compatible bucket.
package minio

import (
	"context"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"

	"github.com/turtacn/launch-radar/internal/config"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/errors"
)

// SnapshotPrefix is the key prefix of heatmap snapshots.
const SnapshotPrefix = "heatmaps/"

// DefaultSnapshotRetentionDays expires old snapshots.
const DefaultSnapshotRetentionDays = 90

// ObjectAPI is the subset of *minio.Client the store uses.
type ObjectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketLifecycle(ctx context.Context, bucketName string, config *lifecycle.Configuration) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// Client owns the connection and the snapshot bucket.
type Client struct {
	api    ObjectAPI
	cfg    config.MinIOConfig
	logger logging.Logger
}

// NewClient connects, creates the bucket when missing and installs the
// snapshot expiry rule.
func NewClient(ctx context.Context, cfg config.MinIOConfig, log logging.Logger) (*Client, error) {
	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "create minio client")
	}

	c := NewClientWithAPI(api, cfg, log)
	if err := c.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	log.Info("minio client connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.SnapshotBucket),
		logging.Bool("ssl", cfg.UseSSL))
	return c, nil
}

// NewClientWithAPI wraps an existing API, typically a mock.
func NewClientWithAPI(api ObjectAPI, cfg config.MinIOConfig, log logging.Logger) *Client {
	if cfg.PresignExpiry == 0 {
		cfg.PresignExpiry = config.DefaultPresignExpiry
	}
	return &Client{api: api, cfg: cfg, logger: log}
}

func (c *Client) Bucket() string { return c.cfg.SnapshotBucket }

// EnsureBucket creates the snapshot bucket and its lifecycle rule. A failing
// lifecycle call is logged only.
func (c *Client) EnsureBucket(ctx context.Context) error {
	bucket := c.cfg.SnapshotBucket
	exists, err := c.api.BucketExists(ctx, bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "check bucket").WithDetail(bucket)
	}
	if !exists {
		if err := c.api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return errors.Wrap(err, errors.ErrCodeStorageError, "create bucket").WithDetail(bucket)
		}
		c.logger.Info("created bucket", logging.String("bucket", bucket))
	}

	lc := lifecycle.NewConfiguration()
	lc.Rules = []lifecycle.Rule{{
		ID:         "snapshot-expiry",
		Status:     "Enabled",
		RuleFilter: lifecycle.Filter{Prefix: SnapshotPrefix},
		Expiration: lifecycle.Expiration{Days: lifecycle.ExpirationDays(DefaultSnapshotRetentionDays)},
	}}
	if err := c.api.SetBucketLifecycle(ctx, bucket, lc); err != nil {
		c.logger.Warn("failed to set snapshot lifecycle", logging.String("bucket", bucket), logging.Err(err))
	}
	return nil
}

// HealthCheck reports whether the bucket is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	ok, err := c.api.BucketExists(ctx, c.cfg.SnapshotBucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "minio unreachable")
	}
	if !ok {
		return errors.New(errors.ErrCodeStorageError, "snapshot bucket missing").WithDetail(c.cfg.SnapshotBucket)
	}
	return nil
}
