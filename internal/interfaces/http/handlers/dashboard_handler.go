package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/turtacn/launch-radar/internal/application/dashboard"
	"github.com/turtacn/launch-radar/internal/application/radar"
	"github.com/turtacn/launch-radar/internal/application/snapshot"
	"github.com/turtacn/launch-radar/internal/domain/coverage"
	"github.com/turtacn/launch-radar/internal/domain/market"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/internal/infrastructure/storage/minio"
	"github.com/turtacn/launch-radar/pkg/errors"
)

type HeatmapService interface {
	Heatmap(ctx context.Context, q dashboard.HeatmapQuery) (*dashboard.Heatmap, error)
	Refresh(ctx context.Context) (*dashboard.State, error)
}

type RadarService interface {
	Personal(ctx context.Context, f radar.Filter) (*radar.View, error)
}

type SnapshotService interface {
	Export(ctx context.Context, q dashboard.HeatmapQuery) (*snapshot.Export, error)
	List(ctx context.Context) ([]*minio.ObjectInfo, error)
}

// DashboardHandler serves the read views: the heatmap, the personal radar
// and heatmap snapshots. Snapshots may be nil when storage is disabled.
type DashboardHandler struct {
	heatmaps  HeatmapService
	radar     RadarService
	snapshots SnapshotService
	logger    logging.Logger
}

func NewDashboardHandler(heatmaps HeatmapService, radar RadarService, snapshots SnapshotService, logger logging.Logger) *DashboardHandler {
	return &DashboardHandler{heatmaps: heatmaps, radar: radar, snapshots: snapshots, logger: logger}
}

// RefreshResponse reports the state that is now being served.
type RefreshResponse struct {
	LoadedAt time.Time      `json:"loaded_at"`
	Counts   map[string]int `json:"counts"`
}

func parseHeatmapQuery(r *http.Request) (dashboard.HeatmapQuery, error) {
	q := dashboard.HeatmapQuery{
		ParentID:   r.URL.Query().Get("parent"),
		ProductIDs: queryList(r, "product"),
	}
	if raw := r.URL.Query().Get("level"); raw != "" {
		lvl, err := market.ParseLevel(raw)
		if err != nil {
			return q, err
		}
		q.Level = lvl
	}
	metric, err := coverage.ParseMetric(r.URL.Query().Get("metric"), "")
	if err != nil {
		return q, err
	}
	q.Metric = metric
	return q, nil
}

func (h *DashboardHandler) Heatmap(w http.ResponseWriter, r *http.Request) {
	q, err := parseHeatmapQuery(r)
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	hm, err := h.heatmaps.Heatmap(r.Context(), q)
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hm)
}

func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	st, err := h.heatmaps.Refresh(r.Context())
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RefreshResponse{LoadedAt: st.LoadedAt(), Counts: st.Counts()})
}

// Radar renders the personal view. Query parameters round-trip through
// radar.Filter so the returned filter can rebuild the URL.
func (h *DashboardHandler) Radar(w http.ResponseWriter, r *http.Request) {
	view, err := h.radar.Personal(r.Context(), radar.ParseFilter(r.URL.Query()))
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ExportSnapshot takes the heatmap query from the URL, like Heatmap.
func (h *DashboardHandler) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Code:    string(errors.ErrCodeServiceUnavailable),
			Message: "snapshot storage is not configured",
		})
		return
	}
	q, err := parseHeatmapQuery(r)
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	exp, err := h.snapshots.Export(r.Context(), q)
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, exp)
}

func (h *DashboardHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		writeJSON(w, http.StatusOK, []*minio.ObjectInfo{})
		return
	}
	list, err := h.snapshots.List(r.Context())
	if err != nil {
		writeAppError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
