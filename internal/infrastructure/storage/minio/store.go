package minio

import (
	"bytes"
	"context"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/errors"
)

// ObjectInfo describes a stored snapshot.
type ObjectInfo struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	ETag         string            `json:"etag"`
	ContentType  string            `json:"content_type"`
	LastModified time.Time         `json:"last_modified"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// SnapshotStore writes and lists JSON snapshots in the snapshot bucket.
type SnapshotStore struct {
	client *Client
}

func NewSnapshotStore(c *Client) *SnapshotStore {
	return &SnapshotStore{client: c}
}

// SnapshotKey builds "heatmaps/<yyyy>/<mm>/<dd>/<id>.json".
func SnapshotKey(id string, at time.Time) string {
	at = at.UTC()
	return SnapshotPrefix + at.Format("2006/01/02") + "/" + id + ".json"
}

// Put uploads data under key. meta becomes user metadata.
func (s *SnapshotStore) Put(ctx context.Context, key string, data []byte, meta map[string]string) (*ObjectInfo, error) {
	if key == "" {
		return nil, errors.InvalidParam("object key is required")
	}
	if len(data) == 0 {
		return nil, errors.InvalidParam("snapshot body is empty")
	}

	bucket := s.client.Bucket()
	info, err := s.client.api.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  "application/json",
		UserMetadata: meta,
	})
	if err != nil {
		s.client.logger.Error("snapshot upload failed", logging.String("key", key), logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "upload snapshot").WithDetail(key)
	}

	s.client.logger.Debug("snapshot uploaded",
		logging.String("bucket", bucket),
		logging.String("key", key),
		logging.Int64("size", info.Size))

	return &ObjectInfo{
		Key:          key,
		Size:         info.Size,
		ETag:         info.ETag,
		ContentType:  "application/json",
		LastModified: info.LastModified,
		Metadata:     meta,
	}, nil
}

// Stat returns metadata of a stored object, NotFound when it is missing.
func (s *SnapshotStore) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	oi, err := s.client.api.StatObject(ctx, s.client.Bucket(), key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, errors.NotFound("snapshot").WithDetail(key)
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "stat snapshot").WithDetail(key)
	}
	return fromMinio(oi), nil
}

// PresignGet returns a time-limited download URL.
func (s *SnapshotStore) PresignGet(ctx context.Context, key string) (string, error) {
	u, err := s.client.api.PresignedGetObject(ctx, s.client.Bucket(), key, s.client.cfg.PresignExpiry, url.Values{})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "presign snapshot").WithDetail(key)
	}
	return u.String(), nil
}

// List returns objects under prefix, newest first.
func (s *SnapshotStore) List(ctx context.Context, prefix string) ([]*ObjectInfo, error) {
	if prefix == "" {
		prefix = SnapshotPrefix
	}
	var out []*ObjectInfo
	for oi := range s.client.api.ListObjects(ctx, s.client.Bucket(), minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if oi.Err != nil {
			return nil, errors.Wrap(oi.Err, errors.ErrCodeStorageError, "list snapshots").WithDetail(prefix)
		}
		out = append(out, fromMinio(oi))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastModified.After(out[j].LastModified) })
	return out, nil
}

// Delete removes an object. Removing a missing key is not an error.
func (s *SnapshotStore) Delete(ctx context.Context, key string) error {
	if err := s.client.api.RemoveObject(ctx, s.client.Bucket(), key, minio.RemoveObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeStorageError, "delete snapshot").WithDetail(key)
	}
	return nil
}

func fromMinio(oi minio.ObjectInfo) *ObjectInfo {
	return &ObjectInfo{
		Key:          oi.Key,
		Size:         oi.Size,
		ETag:         oi.ETag,
		ContentType:  oi.ContentType,
		LastModified: oi.LastModified,
		Metadata:     oi.UserMetadata,
	}
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || strings.Contains(err.Error(), "key does not exist")
}
