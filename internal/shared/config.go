package shared

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MetricsAddr    string
	MySQLDSN       string
	MigrateOnStart bool
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	ScraperBase    string
	ScraperTimeout time.Duration
	CacheTTL       time.Duration
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string
	TrustProxy     bool
}

// Load reads an optional .env file, then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg(".env could not be loaded")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	atof := func(k string, def float64) float64 {
		if v := os.Getenv(k); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
		return def
	}
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		HTTPAddr:       env("HTTP_ADDR", ":3001"),
		MetricsAddr:    env("METRICS_ADDR", ""),
		MySQLDSN:       env("MYSQL_DSN", "root:root@tcp(localhost:3306)/hotel_monitor?parseTime=true&charset=utf8mb4&loc=UTC"),
		MigrateOnStart: envBool("MIGRATE_ON_START", true),
		RedisAddr:      env("REDIS_ADDR", ""),
		RedisPass:      env("REDIS_PASSWORD", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		ScraperBase:    strings.TrimRight(env("SCRAPER_API_URL", "http://localhost:8000"), "/"),
		ScraperTimeout: time.Duration(atoi("SCRAPER_TIMEOUT_SECONDS", 60)) * time.Second,
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		RequestTimeout: time.Duration(atoi("HTTP_TIMEOUT_SECONDS", 75)) * time.Second,
		RateLimitRPS:   atof("RATE_LIMIT_RPS", 2),
		RateLimitBurst: atoi("RATE_LIMIT_BURST", 5),
		AllowedOrigins: splitList(env("ALLOWED_ORIGINS", "*")),
		TrustProxy:     envBool("TRUST_PROXY", false),
	}
	if c.RedisAddr == "" {
		log.Info().Msg("REDIS_ADDR is empty, using in-process cache")
	}
	return c
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var result *multierror.Error
	if c.MySQLDSN == "" {
		result = multierror.Append(result, errors.New("MYSQL_DSN is required"))
	}
	if u, err := url.Parse(c.ScraperBase); err != nil || u.Scheme == "" || u.Host == "" {
		result = multierror.Append(result, fmt.Errorf("SCRAPER_API_URL %q is not an absolute URL", c.ScraperBase))
	}
	if c.ScraperTimeout <= 0 {
		result = multierror.Append(result, errors.New("SCRAPER_TIMEOUT_SECONDS must be positive"))
	}
	if c.RequestTimeout <= c.ScraperTimeout {
		result = multierror.Append(result, fmt.Errorf("HTTP_TIMEOUT_SECONDS (%s) must exceed SCRAPER_TIMEOUT_SECONDS (%s)", c.RequestTimeout, c.ScraperTimeout))
	}
	if c.CacheTTL < 0 {
		result = multierror.Append(result, errors.New("CACHE_TTL_SECONDS must not be negative"))
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		result = multierror.Append(result, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative"))
	}
	return result.ErrorOrNil()
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
