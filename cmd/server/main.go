package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"finledger/internal/config"
	"finledger/internal/handler"
	"finledger/internal/infrastructure/cache"
	"finledger/internal/infrastructure/database"
	"finledger/internal/infrastructure/lock"
	"finledger/internal/infrastructure/mq"
	"finledger/internal/job"
	"finledger/internal/logger"
	"finledger/internal/service"
	"finledger/pkg/idgen"

	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(&cfg.Log)

	if err := idgen.Init(cfg.Server.WorkerID); err != nil {
		log.Fatal().Err(err).Msg("init id generator")
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}

	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.Redis.Enabled {
		client, err := cache.InitRedis(&cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("init redis")
		}
		defer client.Close()
		locker = lock.NewRedisLocker(client, cfg.Ledger.LockTTL, cfg.Ledger.LockRetryInterval, cfg.Ledger.LockMaxRetries)
		log.Info().Msg("using redis account locks")
	}

	var publisher job.Publisher = job.LogPublisher{Log: log}
	if cfg.Kafka.Enabled {
		producer, err := mq.NewKafkaProducer(&cfg.Kafka)
		if err != nil {
			log.Fatal().Err(err).Msg("init kafka")
		}
		defer producer.Close()
		publisher = producer
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Msg("publishing ledger events to kafka")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outboxSender := job.NewOutboxSender(db, publisher, &cfg.Jobs, log)
	go outboxSender.Start(ctx)

	recurringJob := job.NewRecurringJob(service.NewRecurringService(db, locker, cfg, log), cfg.Jobs.RecurringInterval, log)
	go recurringJob.Start(ctx)

	reconcileJob := job.NewReconcileJob(service.NewReconcileService(db, locker, cfg, log), cfg.Jobs.ReconcileInterval, log)
	go reconcileJob.Start(ctx)

	router := handler.SetupRouter(db, locker, cfg, log)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	// drain events committed before shutdown
	outboxSender.Flush(shutdownCtx)

	log.Info().Msg("stopped")
}

func newLogger(cfg *config.LogConfig) zerolog.Logger {
	if cfg.Format == "json" {
		return logger.NewJSON(cfg.Level)
	}
	return logger.New(cfg.Level)
}
