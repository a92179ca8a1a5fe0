package main

import (
	"context"
	"net/http"
	"time"

	"github.com/turtacn/launch-radar/internal/application/blockers"
	"github.com/turtacn/launch-radar/internal/application/catalog"
	"github.com/turtacn/launch-radar/internal/application/comments"
	"github.com/turtacn/launch-radar/internal/application/dashboard"
	"github.com/turtacn/launch-radar/internal/application/escalations"
	"github.com/turtacn/launch-radar/internal/application/events"
	"github.com/turtacn/launch-radar/internal/application/notify"
	"github.com/turtacn/launch-radar/internal/application/radar"
	"github.com/turtacn/launch-radar/internal/application/snapshot"
	"github.com/turtacn/launch-radar/internal/config"
	"github.com/turtacn/launch-radar/internal/domain/coverage"
	"github.com/turtacn/launch-radar/internal/domain/user"
	"github.com/turtacn/launch-radar/internal/infrastructure/auth"
	"github.com/turtacn/launch-radar/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/launch-radar/internal/infrastructure/database/redis"
	"github.com/turtacn/launch-radar/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/launch-radar/internal/infrastructure/storage/minio"
	httpserver "github.com/turtacn/launch-radar/internal/interfaces/http"
	"github.com/turtacn/launch-radar/internal/interfaces/http/handlers"
	"github.com/turtacn/launch-radar/internal/interfaces/http/middleware"
)

const rateLimitIdle = 10 * time.Minute

// app is the wired service graph behind the router.
type app struct {
	router  http.Handler
	metrics *prometheus.RadarMetrics
	store   *dashboard.Store
	limiter *middleware.TokenBucketLimiter
	logger  logging.Logger
}

func buildApp(cfg *config.Config, infra *infrastructure, logger logging.Logger) (*app, error) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Metrics.Namespace,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return nil, err
	}
	metrics := prometheus.NewRadarMetrics(collector)

	// Repositories. The market forest is served through redis.
	cache := redis.NewRedisCache(infra.redis, logger, redis.WithPrefix("radar:"), redis.WithDefaultTTL(cfg.Redis.TTL))
	markets := redis.NewCachedMarketRepository(
		repositories.NewPostgresMarketRepo(infra.db, logger), cache, cfg.Redis.TTL, metrics, logger)
	products := repositories.NewPostgresProductRepo(infra.db, logger)
	cells := repositories.NewPostgresCoverageRepo(infra.db, logger)
	blockerRepo := repositories.NewPostgresBlockerRepo(infra.db, logger)
	escalationRepo := repositories.NewPostgresEscalationRepo(infra.db, logger)
	historyRepo := repositories.NewPostgresEscalationHistoryRepo(infra.db, logger)
	commentRepo := repositories.NewPostgresCommentRepo(infra.db, logger)

	// Identity.
	tokens, err := auth.NewTokenManager(cfg.Auth)
	if err != nil {
		return nil, err
	}
	enforcer := auth.NewEnforcer(nil, logger.Named("rbac"))

	// Events and notifications.
	var emitter *events.Emitter
	sinks := []notify.Sink{notify.NewLogSink(logger)}
	if infra.producer != nil {
		topics := kafka.NewTopicRouter(cfg.Kafka)
		emitter = events.NewEmitter(kafka.NewEventPublisher(infra.producer, topics, "apiserver"), metrics, logger.Named("events"))
		sinks = append(sinks, kafka.NewNotificationSink(infra.producer, topics, logger))
	}
	sink := notify.Multi(sinks...)

	// Read model.
	loader := dashboard.NewLoader(dashboard.Repositories{
		Markets:     markets,
		Products:    products,
		Coverage:    cells,
		Blockers:    blockerRepo,
		Escalations: escalationRepo,
	}, cfg.Dashboard.LoadTimeout)
	store := dashboard.NewStore(loader, cfg.Dashboard.RefreshInterval, sink, metrics, logger.Named("dashboard"))
	dashboards := dashboard.NewService(store, metrics, coverage.Metric(cfg.Dashboard.DefaultMetric))
	radars := radar.NewService(dashboards, commentRepo, enforcer, logger)

	// Write paths.
	catalogSvc, err := catalog.NewService(catalog.Deps{
		Markets:     markets,
		Products:    products,
		Coverage:    cells,
		MarketCache: markets,
		Authz:       enforcer,
		Events:      emitter,
		Notify:      sink,
		Invalidator: store,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	blockerSvc, err := blockers.NewService(blockers.Deps{
		Repo:        blockerRepo,
		Authz:       enforcer,
		Events:      emitter,
		Notify:      sink,
		Metrics:     metrics,
		Invalidator: store,
		Logger:      logger,
		StaleAfter:  cfg.Worker.StaleAfter,
	})
	if err != nil {
		return nil, err
	}
	escalationSvc, err := escalations.NewService(escalations.Deps{
		Repo:        escalationRepo,
		History:     historyRepo,
		Authz:       enforcer,
		Events:      emitter,
		Notify:      sink,
		Metrics:     metrics,
		Invalidator: store,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	commentSvc, err := comments.NewService(comments.Deps{
		Repo:    commentRepo,
		Authz:   enforcer,
		Events:  emitter,
		Notify:  sink,
		Metrics: metrics,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	// The handler treats a nil interface as "snapshots disabled".
	var snapshots handlers.SnapshotService
	if infra.objects != nil {
		snapshots = snapshot.NewService(dashboards, minio.NewSnapshotStore(infra.objects), enforcer, sink, metrics, logger)
	}

	var limiter *middleware.TokenBucketLimiter
	if cfg.Server.RateLimitRPS > 0 {
		limiter = middleware.NewTokenBucketLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, rateLimitIdle)
	}
	var cors *middleware.CORSConfig
	if len(cfg.Server.CORSOrigins) > 0 {
		c := middleware.DefaultCORSConfig()
		c.AllowedOrigins = cfg.Server.CORSOrigins
		cors = &c
	}
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = collector.Handler()
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		HealthHandler:     handlers.NewHealthHandler(version, metrics, logger, infra.healthChecks()...),
		SessionHandler:    handlers.NewSessionHandler(user.DefaultRolePermissions()),
		CatalogHandler:    handlers.NewCatalogHandler(catalogSvc, logger),
		DashboardHandler:  handlers.NewDashboardHandler(dashboards, radars, snapshots, logger),
		BlockerHandler:    handlers.NewBlockerHandler(blockerSvc, logger),
		EscalationHandler: handlers.NewEscalationHandler(escalationSvc, logger),
		CommentHandler:    handlers.NewCommentHandler(commentSvc, logger),
		Auth:              auth.NewMiddleware(tokens, logger, auth.WithRecorder(metrics)),
		Enforcer:          enforcer,
		RateLimiter:       limiter,
		CORS:              cors,
		Logging:           middleware.DefaultLoggingConfig(),
		Recorder:          metrics,
		Logger:            logger,
		Metrics:           metricsHandler,
	})

	return &app{router: router, metrics: metrics, store: store, limiter: limiter, logger: logger}, nil
}

// warmDashboard loads the first state so the first heatmap request does
// not pay for it. A failure is logged; requests retry the load.
func (a *app) warmDashboard(ctx context.Context) {
	if err := a.store.Refresh(ctx); err != nil && ctx.Err() == nil {
		a.logger.Warn("initial dashboard load failed", logging.Err(err))
	}
}

func (a *app) Close() {
	if a.limiter != nil {
		a.limiter.Stop()
	}
}
