package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"

	server "hotel_monitor/internal/adapters/http_server"
	"hotel_monitor/internal/adapters/memcache"
	"hotel_monitor/internal/adapters/observability"
	redisad "hotel_monitor/internal/adapters/redis"
	"hotel_monitor/internal/adapters/scraper"
	"hotel_monitor/internal/app"
	"hotel_monitor/internal/domain"
	"hotel_monitor/internal/shared"
	mysqlrepo "hotel_monitor/internal/storage/mysql"
)

const shutdownGrace = 5 * time.Second

type closingCache interface {
	domain.Cache
	Close() error
}

// newCache prefers Redis and falls back to the in-process cache when it is not
// configured or not reachable.
func newCache(cfg shared.Config) closingCache {
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := rc.Ping(ctx)
		if err == nil {
			log.Info().Str("addr", cfg.RedisAddr).Msg("redis cache ok")
			return rc
		}
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, using in-process cache")
		_ = rc.Close()
	}
	return memcache.New(time.Minute)
}

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, observability.MetricsHandler(reg))

	// db
	if cfg.MigrateOnStart {
		if err := mysqlrepo.Migrate(cfg.MySQLDSN, "up"); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
	}
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	db.SetMaxOpenConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := newCache(cfg)
	q := app.NewQueryService(repo, cache, cfg.CacheTTL)
	s := app.NewScrapeService(scraper.New(cfg.ScraperBase, cfg.ScraperTimeout), repo, q)

	// http
	srv := server.New(server.Options{
		RequestTimeout: cfg.RequestTimeout,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		TrustProxy:     cfg.TrustProxy,
	})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q, S: s})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("scraper", cfg.ScraperBase).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.Info().Str("signal", sig.String()).Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	var result *multierror.Error
	if err := httpSrv.Shutdown(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := cache.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := db.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		log.Error().Err(err).Msg("shutdown finished with errors")
		return
	}
	log.Info().Msg("server gracefully stopped")
}
