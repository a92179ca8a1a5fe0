// Package snapshot exports heatmaps as JSON objects in the snapshot bucket
// and hands back a time-limited download link.
package snapshot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/launch-radar/internal/application/dashboard"
	"github.com/turtacn/launch-radar/internal/application/notify"
	"github.com/turtacn/launch-radar/internal/domain/user"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/internal/infrastructure/storage/minio"
	"github.com/turtacn/launch-radar/pkg/errors"
)

// ObjectStore is the part of the snapshot store the service uses.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, meta map[string]string) (*minio.ObjectInfo, error)
	PresignGet(ctx context.Context, key string) (string, error)
	List(ctx context.Context, prefix string) ([]*minio.ObjectInfo, error)
}

// HeatmapBuilder builds the heatmap being exported.
type HeatmapBuilder interface {
	Heatmap(ctx context.Context, q dashboard.HeatmapQuery) (*dashboard.Heatmap, error)
}

// Recorder counts exports.
type Recorder interface {
	RecordSnapshotExport(err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordSnapshotExport(error) {}

// Document is the stored JSON body.
type Document struct {
	ID         string             `json:"snapshot_id"`
	ExportedBy string             `json:"exported_by"`
	ExportedAt time.Time          `json:"exported_at"`
	Heatmap    *dashboard.Heatmap `json:"heatmap"`
}

// Export describes a stored snapshot.
type Export struct {
	ID        string    `json:"snapshot_id"`
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	Rows      int       `json:"rows"`
	CreatedAt time.Time `json:"created_at"`
}

type Service struct {
	heatmaps HeatmapBuilder
	store    ObjectStore
	authz    user.Authorizer
	sink     notify.Sink
	recorder Recorder
	logger   logging.Logger
	now      func() time.Time
}

func NewService(heatmaps HeatmapBuilder, store ObjectStore, authz user.Authorizer, sink notify.Sink, recorder Recorder, logger logging.Logger) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{
		heatmaps: heatmaps,
		store:    store,
		authz:    authz,
		sink:     notify.OrNop(sink),
		recorder: recorder,
		logger:   logger.Named("snapshot"),
		now:      time.Now,
	}
}

// Export builds the heatmap for q, stores it and returns a presigned link.
func (s *Service) Export(ctx context.Context, q dashboard.HeatmapQuery) (*Export, error) {
	u, err := s.authz.Authorize(ctx, user.PermSnapshotExport)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "snapshot storage is not configured")
	}

	hm, err := s.heatmaps.Heatmap(ctx, q)
	if err != nil {
		return nil, err
	}

	doc := Document{ID: uuid.NewString(), ExportedBy: u.ID, ExportedAt: s.now().UTC(), Heatmap: hm}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "encode snapshot")
	}

	key := minio.SnapshotKey(doc.ID, doc.ExportedAt)
	info, err := s.store.Put(ctx, key, body, map[string]string{
		"level":       string(hm.Level),
		"parent":      hm.ParentID,
		"metric":      string(hm.Metric),
		"exported-by": u.ID,
	})
	if err == nil {
		var link string
		link, err = s.store.PresignGet(ctx, key)
		if err == nil {
			s.recorder.RecordSnapshotExport(nil)
			s.logger.Info("heatmap snapshot exported",
				logging.String("key", key),
				logging.Int("rows", len(hm.Rows)),
				logging.String("actor", u.ID))
			notify.Success(ctx, s.sink, u.ID, doc.ID, "Snapshot exported")
			return &Export{
				ID:        doc.ID,
				Key:       key,
				URL:       link,
				Size:      info.Size,
				Rows:      len(hm.Rows),
				CreatedAt: doc.ExportedAt,
			}, nil
		}
	}

	s.recorder.RecordSnapshotExport(err)
	s.logger.Error("heatmap snapshot export failed", logging.String("key", key), logging.Err(err))
	notify.Failure(ctx, s.sink, u.ID, doc.ID, "Snapshot export failed", err)
	return nil, err
}

// List returns stored snapshots, newest first.
func (s *Service) List(ctx context.Context) ([]*minio.ObjectInfo, error) {
	if _, err := s.authz.Authorize(ctx, user.PermRead); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "snapshot storage is not configured")
	}
	return s.store.List(ctx, minio.SnapshotPrefix)
}
