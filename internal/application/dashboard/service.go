package dashboard

import (
	"context"
	"time"

	"github.com/turtacn/launch-radar/internal/domain/coverage"
)

// Service serves heatmaps from the Store.
type Service struct {
	store         *Store
	recorder      Recorder
	defaultMetric coverage.Metric
	now           func() time.Time
}

func NewService(store *Store, recorder Recorder, defaultMetric coverage.Metric) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if !defaultMetric.Valid() {
		defaultMetric = coverage.MetricCityPct
	}
	return &Service{store: store, recorder: recorder, defaultMetric: defaultMetric, now: time.Now}
}

func (s *Service) DefaultMetric() coverage.Metric { return s.defaultMetric }

// State returns the current State, loading it when needed.
func (s *Service) State(ctx context.Context) (*State, error) {
	return s.store.Get(ctx)
}

// Heatmap builds the grid for q. An empty metric means the default metric.
func (s *Service) Heatmap(ctx context.Context, q HeatmapQuery) (*Heatmap, error) {
	if q.Metric == "" {
		q.Metric = s.defaultMetric
	}
	st, err := s.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	start := s.now()
	hm, err := BuildHeatmap(st, q, start)
	if err != nil {
		return nil, err
	}
	s.recorder.RecordHeatmapBuild(string(hm.Level), s.now().Sub(start))
	return hm, nil
}

// Refresh forces a reload.
func (s *Service) Refresh(ctx context.Context) (*State, error) {
	if err := s.store.Refresh(ctx); err != nil {
		return nil, err
	}
	st, _ := s.store.Current()
	return st, nil
}
