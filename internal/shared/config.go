package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	MySQLDSN  string
	RedisAddr string
	RedisDB   int
	RedisPass string

	RatehawkBase  string
	RatehawkKey   string
	RatehawkKeyID string
	RatehawkRPS   int

	OpenSearchAddrs []string
	OpenSearchUser  string
	OpenSearchPass  string
	HotelIndex      string
	RegionIndex     string

	SyncWorkers  int
	SyncPageSize int
	SyncCountry  string

	CacheTTL time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),

		MySQLDSN:  env("MYSQL_DSN", "root:root@tcp(localhost:3306)/ratehawk?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr: env("REDIS_ADDR", "localhost:6379"),
		RedisDB:   atoi("REDIS_DB", 0),
		RedisPass: env("REDIS_PASSWORD", ""),

		RatehawkBase:  env("RATEHAWK_BASE_URL", "https://api.worldota.net"),
		RatehawkKey:   env("RATEHAWK_API_KEY", ""),
		RatehawkKeyID: env("RATEHAWK_KEY_ID", "5412"),
		RatehawkRPS:   atoi("RATEHAWK_RPS", 5),

		OpenSearchAddrs: split(env("OPENSEARCH_ADDRS", "http://localhost:9200")),
		OpenSearchUser:  env("OPENSEARCH_USERNAME", ""),
		OpenSearchPass:  env("OPENSEARCH_PASSWORD", ""),
		HotelIndex:      env("OPENSEARCH_HOTEL_INDEX", "hotel_ratehawk"),
		RegionIndex:     env("OPENSEARCH_REGION_INDEX", "region_ratehawk"),

		SyncWorkers:  atoi("SYNC_WORKERS", 8),
		SyncPageSize: atoi("SYNC_PAGE_SIZE", 100),
		SyncCountry:  env("SYNC_COUNTRY", "IT"),

		CacheTTL: time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
	}
	if c.RatehawkKey == "" {
		log.Warn().Msg("RATEHAWK_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func split(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
