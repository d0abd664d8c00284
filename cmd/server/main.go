package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/examportal-backend/internal/bootstrap"
	"github.com/stemsi/examportal-backend/internal/config"
	"github.com/stemsi/examportal-backend/internal/database"
	"github.com/stemsi/examportal-backend/internal/handler"
	"github.com/stemsi/examportal-backend/internal/logger"
	"github.com/stemsi/examportal-backend/internal/metrics"
	"github.com/stemsi/examportal-backend/internal/middleware"
	"github.com/stemsi/examportal-backend/internal/realtime"
	"github.com/stemsi/examportal-backend/internal/router"
	"github.com/stemsi/examportal-backend/internal/service"
	"github.com/stemsi/examportal-backend/internal/validator"
	"github.com/stemsi/examportal-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("persistence", cfg.PersistenceBackend).
		Str("identity", cfg.IdentityBackend).
		Msg("Starting Exam Portal Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to Redis ──────────────────────────────────────────────
	// REDIS_URL=none runs the process standalone with in-process sessions
	// and change feed, no exam cache and no result retry queue.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		var err error
		rdb, err = database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
	}

	// ─── Persistence and Identity Gateways ─────────────────────────────
	backends, err := bootstrap.Open(ctx, cfg, rdb, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open backends")
	}
	defer backends.Close()
	idp := backends.Identity

	var feed realtime.Feed = realtime.NewLocalFeed()
	if rdb != nil {
		feed = realtime.NewRedisFeed(rdb, log)
	}
	st := realtime.Observe(backends.Store, feed, log)

	// ─── Metrics ───────────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// ─── Initialize Services ──────────────────────────────────────────
	var (
		examCache service.ExamCache
		queue     service.ResultQueue
	)
	if rdb != nil {
		examCache = service.NewRedisExamCache(rdb)
		queue = worker.NewRedisResultQueue(rdb)
	}

	resolver := service.NewSessionResolver(idp, st.Users, cfg.StudentEmailDomain, log)
	examService := service.NewExamService(st, examCache, cfg.ExamCacheTTL, log)
	studentService := service.NewStudentService(idp, st, cfg.StudentEmailDomain, log)
	teacherService := service.NewTeacherService(idp, st.Users, log)
	catalogService := service.NewCatalogService(st.Branches, st.Subjects, log)
	dashboardService := service.NewDashboardService(st, examService)
	sessionService := service.NewExamSessionService(examService, st.Results, queue, m, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:          handler.NewAuthHandler(resolver),
		Admin:         handler.NewAdminHandler(teacherService),
		Catalog:       handler.NewCatalogHandler(catalogService),
		StudentMgmt:   handler.NewStudentManagementHandler(studentService),
		Exam:          handler.NewExamHandler(examService),
		Dashboard:     handler.NewDashboardHandler(dashboardService),
		StudentPortal: handler.NewStudentPortalHandler(sessionService, examService, studentService),
		WS:            handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
		Stream:        handler.NewStreamHandler(feed, log),
		Metrics:       promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRateLimit, time.Minute)
	go loginLimiter.Run(workerCtx)

	if rdb != nil {
		resultWorker := worker.NewResultWorker(rdb, st.Results, sessionService, m,
			cfg.ResultRetryDelay, cfg.ResultRetryMax, log)
		go resultWorker.Start(workerCtx)
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(resolver, handlers, m, loginLimiter, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop attempt timers, then the workers.
	sessionService.Shutdown()
	workerCancel()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
