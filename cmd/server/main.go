// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/rummy/internal/cache"
	"github.com/jason-s-yu/rummy/internal/config"
	"github.com/jason-s-yu/rummy/internal/game"
	"github.com/jason-s-yu/rummy/internal/handlers"
	"github.com/jason-s-yu/rummy/internal/middleware"
	"github.com/jason-s-yu/rummy/internal/room"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func main() {
	cfg := config.Load()
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}

// rulesFromConfig builds the default table rules for new rooms.
func rulesFromConfig(cfg config.Config) (game.HouseRules, error) {
	rules := game.DefaultHouseRules()
	rules.TurnTimerSec = int(cfg.TurnTimeout / time.Second)
	rules.RoundBreakMs = int(cfg.RoundBreak / time.Millisecond)
	rules.JokerCount = cfg.JokerCount
	rules.MaxPlayers = cfg.MaxPlayers
	rules.EliminationScore = cfg.EliminationScore
	rules.FirstDropPenalty = cfg.FirstDropPenalty
	rules.MiddleDropPenalty = cfg.MiddleDropPenalty
	rules.WrongShowPenalty = cfg.WrongShowPenalty
	rules.DeclareLossPenalty = cfg.DeclareLossPenalty
	rules.MaxConsecutiveTimeouts = cfg.MaxConsecutiveTimeouts
	rules.FirstDropScope = game.DropScope(cfg.FirstDropScope)
	rules.WildExcludesCutSuit = cfg.WildExcludesCutSuit
	if err := rules.Validate(); err != nil {
		return rules, fmt.Errorf("invalid table rules: %w", err)
	}
	return rules, nil
}

func run(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	rules, err := rulesFromConfig(cfg)
	if err != nil {
		return err
	}

	reg := room.NewRegistry(rules, cfg.MinPlayers, logger.WithField("component", "registry"))
	hub := handlers.NewHub(256, logger)
	coord := room.NewCoordinator(reg, hub, logger.WithField("component", "coordinator"))

	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		queue := cache.NewActionQueue(rdb, cfg.HistorianQueueName)
		coord.Publisher = queue
		logger.Infof("Publishing game actions to Redis list %q", queue.Name())
	} else {
		logger.Info("REDIS_ADDR not set; action log disabled")
	}

	mux := handlers.Routes(hub, coord, handlers.WSOptions{
		RateLimit: rate.Limit(cfg.RateLimitPerSec),
		Burst:     cfg.RateLimitBurst,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.LogMiddleware(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
