package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"power_dialer_backend/internal/agents"
	agentrepo "power_dialer_backend/internal/agents/repository"
	"power_dialer_backend/internal/events"
	"power_dialer_backend/internal/leads/reaper"
	leadrepo "power_dialer_backend/internal/leads/repository"
	"power_dialer_backend/internal/scheduler"
	"power_dialer_backend/platform/config"
	"power_dialer_backend/platform/db"
	"power_dialer_backend/platform/logger"
	"power_dialer_backend/platform/redislock"
	"power_dialer_backend/platform/validator"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	if cfg.UseMemoryStore() {
		panic("scheduler requires STORE_DRIVER=postgres; the memory store is local to the api process")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	locker, redisClient, err := redislock.Connect(cfg.GetRedisURL())
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	defer func() { _ = redisClient.Close() }()

	eventBus := events.NewInMemoryBus(log)

	// Released leases still clear agent presence when the sweep runs here.
	agentsModule := agents.NewModule(agentrepo.New(pool), validator.New(), log)
	agentsModule.RegisterHandlers(eventBus)

	sweeper := reaper.NewFromConfig(leadrepo.New(pool), cfg, eventBus, log)
	sweeper.SetLocker(locker)

	interval := sweeper.Interval()

	worker, err := scheduler.NewWorker(cfg, sweeper, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	periodic, err := scheduler.NewPeriodic(cfg, interval, log)
	if err != nil {
		log.Error("failed to initialize periodic sweep", "error", err)
		panic("failed to initialize periodic sweep: " + err.Error())
	}

	client, err := scheduler.NewClient(cfg, interval)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	// Leases abandoned while no scheduler was running are released right away.
	if err := client.EnqueueReleaseStale(ctx, "startup"); err != nil {
		log.Warn("failed to enqueue startup sweep", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return periodic.Run(gctx)
	})
	g.Go(func() error {
		return worker.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		log.Error("scheduler stopped", "error", err)
	}
	eventBus.Wait()
}
