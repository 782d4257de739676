package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	limiterstdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"

	"github.com/nyota-labs/backend-fuel/internal/app"
	"github.com/nyota-labs/backend-fuel/internal/common"
	"github.com/nyota-labs/backend-fuel/internal/config"
	"github.com/nyota-labs/backend-fuel/internal/delivery"
	"github.com/nyota-labs/backend-fuel/internal/depot"
	"github.com/nyota-labs/backend-fuel/internal/events"
	"github.com/nyota-labs/backend-fuel/internal/health"
	"github.com/nyota-labs/backend-fuel/internal/ledger"
	"github.com/nyota-labs/backend-fuel/internal/lock"
	"github.com/nyota-labs/backend-fuel/internal/notify"
	"github.com/nyota-labs/backend-fuel/internal/obs"
	"github.com/nyota-labs/backend-fuel/internal/prices"
	"github.com/nyota-labs/backend-fuel/internal/pricing"
	"github.com/nyota-labs/backend-fuel/internal/quote"
	"github.com/nyota-labs/backend-fuel/internal/ratelimit"
	"github.com/nyota-labs/backend-fuel/internal/resilience"
	"github.com/nyota-labs/backend-fuel/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "fuel")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "fuel-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "fuel-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	if envBool("DB_MIGRATE_ON_START", true) {
		m, err := migrate.New("file://"+cfg.MigrationsPath, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("open migrations")
		}
		if err := app.RunMigrations(m); err != nil {
			logger.Fatal().Err(err).Msg("run migrations")
		}
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	limiterStore, err := app.NewLimiterStore(redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise limiter store")
	}
	globalLimiter := app.NewGlobalLimiter(
		limiterStore,
		envInt64("RATE_LIMIT_GLOBAL_MAX", 600),
		cfg.RateLimitWindow,
	)

	validate := validator.New()

	tierRows, err := pricing.LoadTiers(ctx, pool)
	if err != nil {
		logger.Fatal().Err(err).Msg("load discount tiers")
	}
	if len(tierRows) == 0 {
		logger.Info().Msg("discount_tiers table empty, using compiled-in tiers")
	}
	discounts, err := pricing.NewDiscountEngine(pricing.TiersOrDefault(tierRows))
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise discount engine")
	}

	zoneRows, err := delivery.LoadZones(ctx, pool)
	if err != nil {
		logger.Fatal().Err(err).Msg("load delivery zones")
	}
	if len(zoneRows) == 0 {
		logger.Info().Msg("delivery_zones table empty, using compiled-in zones")
	}
	deliveryCalc, err := delivery.NewCalculator(delivery.ZonesOrDefault(zoneRows))
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise delivery calculator")
	}

	priceBreaker := resilience.NewBreaker(10, 0.5, 15*time.Second).
		WithTarget("price-store").
		WithLogger(logger)
	var resolver prices.Resolver = prices.Cached{
		Next:   prices.Guarded{Next: prices.PG{Pool: pool}, Breaker: priceBreaker},
		Client: redisClient,
		TTL:    cfg.PriceCacheTTL,
	}

	quoteSvc := &quote.Service{
		Resolver:  resolver,
		Discounts: discounts,
		Delivery:  deliveryCalc,
	}
	quoteHandler := &quote.Handler{Svc: quoteSvc, Validate: validate}

	emailNotifier := notify.LowStockNotifier{
		Mail:       common.NopEmailSender{},
		Enabled:    cfg.NotifyEmailEnabled,
		From:       cfg.NotifyEmailFrom,
		Recipients: cfg.NotifyEmailOps,
	}
	bus := &events.Bus{
		Store:     events.PGStore{Pool: pool},
		Notifiers: []events.Notifier{emailNotifier},
	}

	thresholds := ledger.Thresholds{
		Critical: cfg.StockCritical,
		Low:      cfg.StockLow,
		Medium:   cfg.StockMedium,
	}
	if err := thresholds.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid stock thresholds")
	}
	ledgerSvc := &ledger.Service{
		Store:          &ledger.PGStore{DB: pool, MaxRetries: cfg.LedgerMaxRetries},
		Thresholds:     thresholds,
		ReservationTTL: cfg.ReservationTTL,
		Events:         bus,
		Logger:         logger,
	}
	ledgerHandler := &ledger.Handler{
		Svc:      ledgerSvc,
		Validate: validate,
		Lock:     &lock.Locker{Client: redisClient, RetryBackoff: cfg.LockRetryBackoff},
		LockTTL:  cfg.LockTTL,
	}

	depotHandler := &depot.Handler{Repo: depot.Repo{Pool: pool}}

	idem := common.Idem{Client: redisClient, TTL: cfg.IdempotencyTTL}

	quoteLimiter := ratelimit.Guard{
		Window: ratelimit.SlidingWindow{Client: redisClient, Prefix: "rl:quotes:"},
		Key:    common.ClientIP,
		Period: cfg.RateLimitWindow,
		Max:    cfg.RateLimitMax,
		OnError: func(err error) {
			logger.Error().Err(err).Msg("rate limit check")
		},
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true}.Middleware)
	r.Use(security.BodyLimit{Max: envInt64("SECURE_MAX_BODY_BYTES", 1<<20)}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	pprofEnabled := envBool("OBS_ENABLE_PPROF", true)
	if pprofEnabled {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(limiterstdlib.NewMiddleware(globalLimiter).Handler)
		v.Get("/locations", depotHandler.List)
		v.Get("/locations/{locationID}", depotHandler.Get)
		v.Get("/delivery/zones", quoteHandler.Zones)
		v.Get("/pricing/tiers", quoteHandler.Tiers)

		v.Group(func(q chi.Router) {
			q.Use(quoteLimiter.Middleware)
			q.Post("/quotes", quoteHandler.Quote)
			q.Get("/quotes/next-tier", quoteHandler.NextTier)
		})

		v.Get("/stock/{locationID}/{fuelType}", ledgerHandler.StockStatus)

		v.Group(func(g chi.Router) {
			g.Use(idem.Middleware)
			g.Post("/reservations", ledgerHandler.Reserve)
			g.Post("/reservations/{id}/commit", ledgerHandler.Commit)
			g.Post("/reservations/{id}/release", ledgerHandler.Release)
			g.Post("/admin/stock/restock", ledgerHandler.Restock)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		<-sigCtx.Done()

		// Fail readiness first so load balancers drain before the listener closes.
		health.SetReady(false)
		time.Sleep(envDurationMillis("SHUTDOWN_DRAIN_MS", 2000))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/block", pprof.Handler("block"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	mux.Handle("/threadcreate", pprof.Handler("threadcreate"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
