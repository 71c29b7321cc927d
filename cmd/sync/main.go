package main

import (
	"context"
	"database/sql"
	"flag"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"github.com/nrenier/ratehawk-connector/internal/adapters/observability"
	opensearchad "github.com/nrenier/ratehawk-connector/internal/adapters/opensearch"
	"github.com/nrenier/ratehawk-connector/internal/adapters/ratehawk"
	"github.com/nrenier/ratehawk-connector/internal/app"
	"github.com/nrenier/ratehawk-connector/internal/shared"
	mysqlrepo "github.com/nrenier/ratehawk-connector/internal/storage/mysql"
)

func main() {
	country := flag.String("country", "", "ISO country filter; empty uses SYNC_COUNTRY")
	regionsOnly := flag.Bool("regions-only", false, "sync the region dump and stop")
	flag.Parse()

	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	if *country == "" {
		*country = cfg.SyncCountry
	}
	log.Info().
		Str("base", cfg.RatehawkBase).
		Str("country", *country).
		Int("workers", cfg.SyncWorkers).
		Int("page_size", cfg.SyncPageSize).
		Msg("sync starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	records := mysqlrepo.New(db)
	if err := records.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}
	log.Info().Msg("db ping ok")

	client, err := ratehawk.NewClient(cfg.RatehawkBase, cfg.RatehawkKey, cfg.RatehawkKeyID, cfg.RatehawkRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize vendor client")
	}
	vendor := ratehawk.NewAdapter(client)

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

	sync := app.NewSynchronizer(vendor, store, records, cfg.SyncWorkers, cfg.SyncPageSize)

	if *regionsOnly {
		out, err := sync.SyncRegions(ctx, *country)
		if err != nil {
			log.Fatal().Err(err).Str("run_id", out.RunID).Msg("region sync failed")
		}
		return
	}
	out, err := sync.SyncAll(ctx, *country)
	if err != nil {
		log.Fatal().Err(err).Str("run_id", out.RunID).Msg("sync failed")
	}
}
