// cmd/db/historian.go is the asynchronous historian: it pops game actions from
// the Redis queue and archives them in PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/rummy/internal/cache"
	"github.com/jason-s-yu/rummy/internal/config"
	"github.com/jason-s-yu/rummy/internal/database"
	"github.com/jason-s-yu/rummy/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatalf("historian: %v", err)
	}
	logger.Info("Historian shutdown complete.")
}

func run(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}
	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	store, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	queue := cache.NewActionQueue(rdb, cfg.HistorianQueueName)
	svc := historian.New(queue, store, historian.Options{
		BatchSize:  cfg.HistorianBatchSize,
		FlushDelay: cfg.HistorianFlushDelay,
		Inactivity: cfg.GameInactivity,
	}, logger.WithFields(logrus.Fields{"component": "historian", "queue": queue.Name()}))
	return svc.Run(ctx)
}
