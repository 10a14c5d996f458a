package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yuzvak/salesboard-service/internal/application/commands"
	"github.com/yuzvak/salesboard-service/internal/application/ports"
	"github.com/yuzvak/salesboard-service/internal/application/use_cases"
	"github.com/yuzvak/salesboard-service/internal/config"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/auth"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/events"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/http/handlers"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/http/middleware"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/http/server"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/monitoring"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/persistence/memory"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/persistence/postgres"
	"github.com/yuzvak/salesboard-service/internal/infrastructure/persistence/redis"
	"github.com/yuzvak/salesboard-service/internal/pkg/clock"
	"github.com/yuzvak/salesboard-service/internal/pkg/generator"
	"github.com/yuzvak/salesboard-service/internal/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to configuration file")
	flag.Parse()

	log := logger.NewLogger()

	cfg, configErr := config.LoadConfig(*configPath)
	if configErr != nil {
		log.Fatal("Failed to load configuration", "error", configErr)
	}
	log = logger.New(os.Stdout, logger.ParseLevel(cfg.Log.Level))
	log.Info("Starting SalesBoard service", "db_driver", cfg.Database.Driver, "events_driver", cfg.Events.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	defer stop()

	clk := clock.NewRealClock()
	ids := generator.NewUUIDGenerator()
	checks := map[string]handlers.Check{}
	g, gctx := errgroup.WithContext(ctx)

	var uow ports.UnitOfWork
	if cfg.Database.Driver == "memory" {
		log.Warn("Using in-memory store, data is lost on restart")
		uow = memory.NewStore(clk)
	} else {
		db, err := postgres.NewConnection(cfg.Database)
		if err != nil {
			log.Fatal("Failed to connect to database", "error", err)
		}
		defer db.Close()

		if err := postgres.RunMigrations(ctx, db.GetDB(), cfg.Database.MigrationsPath, log); err != nil {
			log.Fatal("Failed to run migrations", "error", err)
		}

		uow = postgres.NewUnitOfWork(db)
		checks["database"] = db.GetDB().PingContext

		collector := monitoring.NewDBMetricsCollector(db.GetDB())
		g.Go(func() error { return collector.Run(gctx, 15*time.Second) })
	}

	var (
		sessions ports.SessionStore = memory.NewSessionStore()
		locker   ports.Locker       = memory.NewLocker()
	)
	if cfg.Redis.Enabled {
		conn, err := redis.NewConnection(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", "error", err, "address", cfg.Redis.Addr())
		}
		defer conn.Close()

		sessions = redis.NewSessionStore(conn, cfg.Session.TTL.Duration)
		locker = redis.NewLocker(conn)
		checks["redis"] = func(ctx context.Context) error { return conn.GetClient().Ping(ctx).Err() }
	} else {
		log.Warn("Redis disabled, sessions and checkout locks are process-local")
	}
	if !cfg.Checkout.LockEnabled {
		locker = nil
	}

	publisher, err := events.New(cfg.Events, log)
	if err != nil {
		log.Fatal("Failed to create event publisher", "error", err)
	}
	defer publisher.Close()

	checkoutUseCase := use_cases.NewCheckoutUseCase(
		uow,
		locker,
		publisher,
		monitoring.NewCheckoutMetrics(),
		ids,
		clk,
		log,
		use_cases.CheckoutConfig{
			RetryAttempts: cfg.Checkout.RetryAttempts,
			RetryBackoff:  cfg.Checkout.RetryBackoff.Duration,
			LockTTL:       cfg.Checkout.LockTTL.Duration,
		},
	)
	cartMetrics := monitoring.NewCartMetrics()

	deps := server.Dependencies{
		Cart: handlers.NewCartHandler(
			use_cases.NewCartUseCase(uow.Carts(), log),
			commands.NewAddToCartHandler(uow, ids, clk, cartMetrics, log),
			commands.NewRemoveCartLineHandler(uow.Carts(), cartMetrics, log),
			commands.NewClearCartHandler(uow.Carts(), cartMetrics, log),
			log,
		),
		Checkout:  handlers.NewCheckoutHandler(commands.NewCheckoutHandler(checkoutUseCase, log), log),
		Inventory: handlers.NewInventoryHandler(use_cases.NewCatalogUseCase(uow, clk, log), log),
		Sales:     handlers.NewSalesHandler(use_cases.NewLedgerUseCase(uow.Sales())),
		Health:    handlers.NewHealthHandler(checks, log),
		Sessions:  sessions,
		SessionOptions: middleware.SessionOptions{
			CookieName: cfg.Session.CookieName,
			TTL:        cfg.Session.TTL.Duration,
			Secure:     cfg.Session.Secure,
		},
		IDs:    ids,
		Tokens: auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL.Duration),
	}
	httpServer := server.NewServer(cfg.Server, deps, log)

	g.Go(httpServer.ListenAndServe)

	if cfg.Server.MetricsAddr != "" {
		metricsServer := monitoring.NewMetricsServer(cfg.Server.MetricsAddr)
		g.Go(metricsServer.Start)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsServer.Stop(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}
