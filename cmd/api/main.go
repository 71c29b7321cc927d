package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "github.com/nrenier/ratehawk-connector/internal/adapters/http_server"
	"github.com/nrenier/ratehawk-connector/internal/adapters/observability"
	opensearchad "github.com/nrenier/ratehawk-connector/internal/adapters/opensearch"
	"github.com/nrenier/ratehawk-connector/internal/adapters/ratehawk"
	redisad "github.com/nrenier/ratehawk-connector/internal/adapters/redis"
	"github.com/nrenier/ratehawk-connector/internal/app"
	"github.com/nrenier/ratehawk-connector/internal/shared"
	mysqlrepo "github.com/nrenier/ratehawk-connector/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	records := mysqlrepo.New(db)
	if err := records.Migrate(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}
	log.Info().Msg("database connection ok")

	// vendor
	client, err := ratehawk.NewClient(cfg.RatehawkBase, cfg.RatehawkKey, cfg.RatehawkKeyID, cfg.RatehawkRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize vendor client")
	}
	vendor := ratehawk.NewAdapter(client)

	// search store
	store, err := opensearchad.New(opensearchad.Config{
		Addresses:   cfg.OpenSearchAddrs,
		Username:    cfg.OpenSearchUser,
		Password:    cfg.OpenSearchPass,
		HotelIndex:  cfg.HotelIndex,
		RegionIndex: cfg.RegionIndex,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize search store")
	}

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := cache.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("redis ping failed")
	}

	q := app.NewQueryService(vendor, store, cache, cfg.CacheTTL)
	b := app.NewBookingService(vendor, records)
	sync := app.NewSynchronizer(vendor, store, records, cfg.SyncWorkers, cfg.SyncPageSize)

	// http
	srv := server.New(30 * time.Second)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q, B: b, Sync: sync, Records: records})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
