package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"power_dialer_backend/internal/adapters"
	"power_dialer_backend/internal/agents"
	agentrepo "power_dialer_backend/internal/agents/repository"
	"power_dialer_backend/internal/campaigns"
	camprepo "power_dialer_backend/internal/campaigns/repository"
	"power_dialer_backend/internal/events"
	apphttp "power_dialer_backend/internal/http"
	"power_dialer_backend/internal/http/router"
	"power_dialer_backend/internal/leads"
	leadrepo "power_dialer_backend/internal/leads/repository"
	"power_dialer_backend/internal/zones"
	zonerepo "power_dialer_backend/internal/zones/repository"
	"power_dialer_backend/platform/config"
	"power_dialer_backend/platform/db"
	"power_dialer_backend/platform/logger"
	"power_dialer_backend/platform/redislock"
	"power_dialer_backend/platform/validator"

	"golang.org/x/sync/errgroup"
)

// stores groups the repositories behind the configured driver.
type stores struct {
	campaigns camprepo.Repository
	leads     leadrepo.Repository
	zones     zonerepo.Repository
	agents    agentrepo.Repository
	health    apphttp.HealthChecker
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "store", cfg.GetStoreDriver())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open stores", "error", err)
		panic("failed to open stores: " + err.Error())
	}
	defer st.close()

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	// ========================================================================
	// Modules
	// ========================================================================

	campaignsModule := campaigns.NewModule(st.campaigns, val, log)
	if err := db.Retry(ctx, log, "campaign seed", 3, time.Second, func() error {
		return campaignsModule.SeedDefaults(ctx)
	}); err != nil {
		log.Error("failed to seed campaigns", "error", err)
		panic("failed to seed campaigns: " + err.Error())
	}

	// Waves are read through the campaign service on every call, so toggling
	// a campaign takes effect on the next lead request.
	registry := adapters.NewCampaignRegistry(campaignsModule.Service())
	leadsModule := leads.NewModule(st.leads, registry, eventBus, val, cfg, log)

	zonesModule := zones.NewModule(st.zones, eventBus, val, log)

	agentsModule := agents.NewModule(st.agents, val, log)
	agentsModule.RegisterHandlers(eventBus)

	// ========================================================================
	// Stale lease release
	// ========================================================================

	runReaper := true
	if redisURL := cfg.GetRedisURL(); redisURL != "" {
		locker, redisClient, err := redislock.Connect(redisURL)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			panic("failed to connect to redis: " + err.Error())
		}
		defer func() { _ = redisClient.Close() }()
		leadsModule.Reaper().SetLocker(locker)
		// cmd/scheduler owns the periodic sweep when redis is available.
		runReaper = false
	} else {
		log.Warn("REDIS_URL not configured; sweeping stale leases in process")
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   st.health,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			campaignsModule,
			zonesModule,
			agentsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if runReaper {
		g.Go(func() error {
			leadsModule.Reaper().Run(gctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
	eventBus.Wait()
}

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	if cfg.UseMemoryStore() {
		log.Warn("using in-memory store; state is lost on restart")
		return &stores{
			campaigns: camprepo.NewMemory(),
			leads:     leadrepo.NewMemory(),
			zones:     zonerepo.NewMemory(),
			agents:    agentrepo.NewMemory(),
			close:     func() {},
		}, nil
	}

	pool, err := db.Connect(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	if err := db.Retry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool)
	}); err != nil {
		pool.Close()
		return nil, err
	}

	return &stores{
		campaigns: camprepo.New(pool),
		leads:     leadrepo.New(pool),
		zones:     zonerepo.New(pool),
		agents:    agentrepo.New(pool),
		health:    db.NewPoolAdapter(pool),
		close:     pool.Close,
	}, nil
}
