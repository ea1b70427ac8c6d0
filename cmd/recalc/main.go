// Command recalc rebuilds every cached account balance and envelope amount
// from the ledger and prints the drift report as JSON. With -dry-run nothing
// is written. The exit status is 2 when drift was found.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"finledger/internal/config"
	"finledger/internal/infrastructure/cache"
	"finledger/internal/infrastructure/database"
	"finledger/internal/infrastructure/lock"
	"finledger/internal/logger"
	"finledger/internal/service"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config")
	dryRun := flag.Bool("dry-run", false, "report drift without repairing it")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	log := logger.NewWithWriter(os.Stderr, cfg.Log.Level)

	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Error().Err(err).Msg("open database")
		return 1
	}

	// Without redis the locks are process-local: stop the server first.
	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.Redis.Enabled {
		client, err := cache.InitRedis(&cfg.Redis)
		if err != nil {
			log.Error().Err(err).Msg("init redis")
			return 1
		}
		defer client.Close()
		locker = lock.NewRedisLocker(client, cfg.Ledger.LockTTL, cfg.Ledger.LockRetryInterval, cfg.Ledger.LockMaxRetries)
	}

	svc := service.NewReconcileService(db, locker, cfg, log)

	report, err := svc.Recalculate(context.Background(), service.ReconcileOptions{DryRun: *dryRun})
	if err != nil {
		log.Error().Err(err).Msg("recalculate")
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Error().Err(err).Msg("write report")
		return 1
	}

	if !report.Clean() {
		return 2
	}
	return 0
}
