package main

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/openvms/gatekit/internal/audit"
	"github.com/openvms/gatekit/internal/audit/store"
	"github.com/openvms/gatekit/internal/config"
	"github.com/openvms/gatekit/internal/identity"
	"github.com/openvms/gatekit/internal/middleware"
	"github.com/openvms/gatekit/internal/observability"
	"github.com/openvms/gatekit/internal/ratelimit"
)

// Local limiter housekeeping.
const (
	cleanupInterval = 5 * time.Minute
	cleanupMaxAge   = 30 * time.Minute
)

// application holds the wired components of the server.
type application struct {
	cfg     *config.Config
	handler http.Handler
	store   audit.Store
	stopCh  chan struct{}
}

// initApplication wires stores, limiters, and the middleware pipeline.
func initApplication(cfg *config.Config, logger observability.Logger) *application {
	app := &application{
		cfg:    cfg,
		stopCh: make(chan struct{}),
	}

	app.store = initStore(cfg, logger)

	auditMetrics := audit.NewMetrics(cfg.ServiceName)
	persister := audit.NewPersister(app.store,
		audit.WithPersisterLogger(logger),
		audit.WithPersisterMetrics(auditMetrics),
	)

	limiter := app.initLimiter(cfg, logger)
	rules := ratelimit.NewRuleSet(&cfg.RateLimit)
	resolver := identity.NewResolver(cfg.RateLimit.EndpointPatterns)
	rateLimitMetrics := ratelimit.NewMetrics(cfg.ServiceName)

	handler := http.Handler(newMux())
	if cfg.RateLimit.Enabled {
		handler = middleware.RateLimit(limiter, rules, resolver,
			middleware.WithRateLimitLogger(logger),
			middleware.WithRateLimitMetrics(rateLimitMetrics),
		)(handler)
	}
	handler = middleware.Audit(&cfg.Audit, persister,
		middleware.WithAuditLogger(logger),
	)(handler)
	handler = middleware.RequestID()(handler)
	handler = middleware.Recovery(logger)(handler)

	app.handler = handler
	return app
}

// initStore selects the durable audit store: postgres when a database is
// configured, otherwise an in-memory store for local development.
func initStore(cfg *config.Config, logger observability.Logger) audit.Store {
	if cfg.Database == nil {
		logger.Warn("no database configured, audit entries are held in memory")
		return store.NewMemoryStore()
	}

	pg, err := store.NewPostgresStore(cfg.Database)
	if err != nil {
		logger.Error("failed to open audit database", observability.Error(err))
		os.Exit(1)
	}
	logger.Info("audit store connected", observability.String("driver", cfg.Database.Driver))
	return pg
}

// initLimiter selects the rate limit counter store: redis when configured so
// counters are shared across instances, otherwise process-local memory.
func (app *application) initLimiter(cfg *config.Config, logger observability.Logger) ratelimit.Limiter {
	if cfg.Redis != nil && cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Address,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout.Duration(),
			ReadTimeout:  cfg.Redis.ReadTimeout.Duration(),
			WriteTimeout: cfg.Redis.WriteTimeout.Duration(),
		})
		logger.Info("rate limit counters shared via redis",
			observability.String("address", cfg.Redis.Address))
		return ratelimit.NewRedisLimiter(client, cfg.Redis.Prefix+"ratelimit:")
	}

	local := ratelimit.NewLocalLimiter()
	local.StartCleanup(cleanupInterval, cleanupMaxAge, app.stopCh)
	logger.Info("rate limit counters held in process memory")
	return local
}

// newMux builds the base router: operational endpoints plus the API root.
func newMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(middleware.HeaderContentType, middleware.ContentTypeJSON)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(middleware.HeaderContentType, middleware.ContentTypeJSON)
		_, _ = w.Write([]byte(`{"service":"gatekit","version":"` + version + `"}`))
	})

	return mux
}
