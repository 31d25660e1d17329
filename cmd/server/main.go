package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"census/internal/census"
	censushandler "census/internal/census/handler"
	"census/internal/census/sequence"
	memorystore "census/internal/census/store/memory"
	postgresstore "census/internal/census/store/postgres"
	"census/internal/platform/config"
	"census/internal/platform/httpserver"
	"census/internal/platform/logger"
	"census/internal/platform/metrics"
	"census/internal/platform/middleware"
	"census/internal/platform/postgres"
	platformredis "census/internal/platform/redis"
	"census/internal/stats"
	statshandler "census/internal/stats/handler"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx := context.Background()

	var (
		store     census.RecordStore
		allocator census.SequenceAllocator
		db        *sql.DB
	)
	if cfg.PostgresURL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres setup failed", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		store = postgresstore.NewStore(db)
		allocator = postgresstore.NewAllocator(db)
	} else {
		log.Warn("no CENSUS_POSTGRES_URL set, using in-memory store")
		store = memorystore.NewStore()
		allocator = memorystore.NewAllocator()
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis setup failed", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		if cfg.SequenceBackend == "redis" {
			allocator = sequence.NewRedis(redisClient.Client)
		}
	}

	var cacheClient *redis.Client
	if redisClient != nil {
		cacheClient = redisClient.Client
	}

	statsService, err := stats.NewService(store, log, m, cacheClient, cfg.StatsCacheTTL)
	if err != nil {
		log.Error("stats service setup failed", "error", err.Error())
		os.Exit(1)
	}

	recordService, err := census.NewService(store, allocator, log, m, statsService)
	if err != nil {
		log.Error("record service setup failed", "error", err.Error())
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	statshandler.New(statsService, log).Register(r)
	censushandler.New(recordService, log).Register(r)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if db != nil {
			if err := db.PingContext(req.Context()); err != nil {
				http.Error(w, "record store unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(req.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	srv := httpserver.New(cfg.Addr, r)

	log.Info("starting census server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
}
