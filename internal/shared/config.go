package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv        string
	AdminAddr     string
	MySQLDSN      string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	BotToken      string
	HotelsBase    string
	HotelsKey     string
	HotelsHost    string
	CurrencyBase  string
	CurrencyKey   string
	Locale        string
	PageSize      int
	RetryLimit    int
	EnrichWorkers int
	CacheTTL      time.Duration
}

func Load() Config {
	// best-effort; real deployments set the environment directly
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		AdminAddr:     env("ADMIN_ADDR", ":9100"),
		MySQLDSN:      env("MYSQL_DSN", "root:root@tcp(localhost:3306)/hotel_scout?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		RedisPass:     env("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),
		BotToken:      env("BOT_TOKEN", ""),
		HotelsBase:    env("HOTELS_BASE_URL", "https://hotels4.p.rapidapi.com"),
		HotelsKey:     env("HOTELS_API_KEY", ""),
		HotelsHost:    env("HOTELS_API_HOST", "hotels4.p.rapidapi.com"),
		CurrencyBase:  env("CURRENCY_BASE_URL", "https://api.apilayer.com/currency_data"),
		CurrencyKey:   env("CURRENCY_API_KEY", ""),
		Locale:        env("SEARCH_LOCALE", "ru_RU"),
		PageSize:      atoi("SOURCE_PAGE_SIZE", 200),
		RetryLimit:    atoi("SOURCE_RETRY_LIMIT", 5),
		EnrichWorkers: atoi("ENRICH_WORKERS", 4),
		CacheTTL:      time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
	}
	if c.CurrencyKey == "" {
		log.Warn().Msg("CURRENCY_API_KEY is empty; prices will show in source currency")
	}
	return c
}

// MustValidate stops the process when required credentials are missing.
// Serving sessions without them would fail on the first search.
func (c Config) MustValidate() {
	if c.BotToken == "" {
		log.Fatal().Msg("BOT_TOKEN is required")
	}
	if c.HotelsKey == "" {
		log.Fatal().Msg("HOTELS_API_KEY is required")
	}
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
