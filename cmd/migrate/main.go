package main

import (
	"flag"

	"github.com/rs/zerolog/log"

	"hotel_monitor/internal/adapters/observability"
	"hotel_monitor/internal/shared"
	mysqlrepo "hotel_monitor/internal/storage/mysql"
)

// Applies or reverts the embedded schema migrations against MYSQL_DSN.
// Usage: migrate [up|down]
func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)

	flag.Parse()
	direction := "up"
	if flag.NArg() > 0 {
		direction = flag.Arg(0)
	}
	if cfg.MySQLDSN == "" {
		log.Fatal().Msg("MYSQL_DSN is required")
	}

	if err := mysqlrepo.Migrate(cfg.MySQLDSN, direction); err != nil {
		log.Fatal().Err(err).Str("direction", direction).Msg("migrate failed")
	}
}
