package prometheus

import (
	"database/sql"
	"strconv"
	"time"
)

// RadarMetrics is the full metric set of the API server and the worker.
type RadarMetrics struct {
	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Auth
	AuthAttemptsTotal CounterVec

	// Dashboard read model
	DashboardLoadDuration HistogramVec
	DashboardLoadsTotal   CounterVec
	DashboardRecords      GaugeVec
	HeatmapBuildDuration  HistogramVec

	// Workflow
	BlockerOpsTotal          CounterVec
	BlockersMarkedStale      CounterVec
	EscalationTransitions    CounterVec
	EscalationHistoryMissing CounterVec
	CommentsTotal            CounterVec

	// Infrastructure
	CacheResultsTotal    CounterVec
	DBPoolConnections    GaugeVec
	EventsPublishedTotal CounterVec
	EventsConsumedTotal  CounterVec
	SnapshotExportsTotal CounterVec
	WorkerSweepDuration  HistogramVec
	HealthCheckStatus    GaugeVec
}

var (
	DefaultHTTPDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultLoadDurationBuckets = []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}
	DefaultBuildBuckets        = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25}
)

// NewRadarMetrics registers every metric on collector.
func NewRadarMetrics(c MetricsCollector) *RadarMetrics {
	m := &RadarMetrics{}

	m.HTTPRequestsTotal = c.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "route", "status_code")
	m.HTTPRequestDuration = c.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "route")
	m.HTTPActiveRequests = c.RegisterGauge("http_active_requests", "In-flight HTTP requests", "method")

	m.AuthAttemptsTotal = c.RegisterCounter("auth_attempts_total", "Bearer token checks", "result", "reason")

	m.DashboardLoadDuration = c.RegisterHistogram("dashboard_load_duration_seconds", "Time to load the dashboard state", DefaultLoadDurationBuckets, "result")
	m.DashboardLoadsTotal = c.RegisterCounter("dashboard_loads_total", "Dashboard state loads", "result")
	m.DashboardRecords = c.RegisterGauge("dashboard_records", "Records held by the current dashboard state", "kind")
	m.HeatmapBuildDuration = c.RegisterHistogram("heatmap_build_duration_seconds", "Heatmap aggregation time", DefaultBuildBuckets, "level")

	m.BlockerOpsTotal = c.RegisterCounter("blocker_operations_total", "Blocker writes", "operation", "result")
	m.BlockersMarkedStale = c.RegisterCounter("blockers_marked_stale_total", "Blockers flagged stale by the sweep")
	m.EscalationTransitions = c.RegisterCounter("escalation_transitions_total", "Escalation status changes", "from", "to")
	m.EscalationHistoryMissing = c.RegisterCounter("escalation_history_missing_total", "Escalation writes whose history append failed", "operation")
	m.CommentsTotal = c.RegisterCounter("comments_total", "Cell questions and answers", "operation")

	m.CacheResultsTotal = c.RegisterCounter("cache_results_total", "Cache lookups", "cache", "result")
	m.DBPoolConnections = c.RegisterGauge("db_pool_connections", "Database pool connections", "state")
	m.EventsPublishedTotal = c.RegisterCounter("events_published_total", "Domain events published", "type", "result")
	m.EventsConsumedTotal = c.RegisterCounter("events_consumed_total", "Domain events handled by the worker", "type", "result")
	m.SnapshotExportsTotal = c.RegisterCounter("snapshot_exports_total", "Heatmap snapshot exports", "result")
	m.WorkerSweepDuration = c.RegisterHistogram("worker_sweep_duration_seconds", "Stale blocker sweep duration", DefaultLoadDurationBuckets)
	m.HealthCheckStatus = c.RegisterGauge("health_check_status", "Component health (1=up, 0=down)", "component")

	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordHTTPRequest records one served request. route is the chi pattern,
// not the raw path.
func (m *RadarMetrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *RadarMetrics) RecordAuth(ok bool, reason string) {
	r := "success"
	if !ok {
		r = "failure"
	}
	m.AuthAttemptsTotal.WithLabelValues(r, reason).Inc()
}

// RecordDashboardLoad records a state load and, on success, its sizes.
func (m *RadarMetrics) RecordDashboardLoad(d time.Duration, err error, counts map[string]int) {
	m.DashboardLoadDuration.WithLabelValues(result(err)).Observe(d.Seconds())
	m.DashboardLoadsTotal.WithLabelValues(result(err)).Inc()
	if err != nil {
		return
	}
	for kind, n := range counts {
		m.DashboardRecords.WithLabelValues(kind).Set(float64(n))
	}
}

func (m *RadarMetrics) RecordHeatmapBuild(level string, d time.Duration) {
	m.HeatmapBuildDuration.WithLabelValues(level).Observe(d.Seconds())
}

func (m *RadarMetrics) RecordBlockerOp(op string, err error) {
	m.BlockerOpsTotal.WithLabelValues(op, result(err)).Inc()
}

func (m *RadarMetrics) RecordStaleMarked(n int) {
	if n > 0 {
		m.BlockersMarkedStale.WithLabelValues().Add(float64(n))
	}
}

func (m *RadarMetrics) RecordTransition(from, to string) {
	m.EscalationTransitions.WithLabelValues(from, to).Inc()
}

func (m *RadarMetrics) RecordHistoryMissing(op string) {
	m.EscalationHistoryMissing.WithLabelValues(op).Inc()
}

func (m *RadarMetrics) RecordComment(op string) {
	m.CommentsTotal.WithLabelValues(op).Inc()
}

// RecordCacheResult satisfies the cache hit recorder used by the market cache.
func (m *RadarMetrics) RecordCacheResult(cache string, hit bool) {
	r := "miss"
	if hit {
		r = "hit"
	}
	m.CacheResultsTotal.WithLabelValues(cache, r).Inc()
}

func (m *RadarMetrics) RecordEventPublished(eventType string, err error) {
	m.EventsPublishedTotal.WithLabelValues(eventType, result(err)).Inc()
}

func (m *RadarMetrics) RecordEventConsumed(eventType string, err error) {
	m.EventsConsumedTotal.WithLabelValues(eventType, result(err)).Inc()
}

func (m *RadarMetrics) RecordSnapshotExport(err error) {
	m.SnapshotExportsTotal.WithLabelValues(result(err)).Inc()
}

func (m *RadarMetrics) RecordSweep(d time.Duration) {
	m.WorkerSweepDuration.WithLabelValues().Observe(d.Seconds())
}

func (m *RadarMetrics) RecordHealth(component string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}

// RecordDBStats publishes a database/sql pool snapshot.
func (m *RadarMetrics) RecordDBStats(s sql.DBStats) {
	m.DBPoolConnections.WithLabelValues("open").Set(float64(s.OpenConnections))
	m.DBPoolConnections.WithLabelValues("in_use").Set(float64(s.InUse))
	m.DBPoolConnections.WithLabelValues("idle").Set(float64(s.Idle))
}
