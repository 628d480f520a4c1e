package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/fairyhunter13/credicambios/internal/auth"
	"github.com/fairyhunter13/credicambios/internal/cache"
	"github.com/fairyhunter13/credicambios/internal/config"
	"github.com/fairyhunter13/credicambios/internal/feed"
	"github.com/fairyhunter13/credicambios/internal/handler"
	"github.com/fairyhunter13/credicambios/internal/middleware"
	"github.com/fairyhunter13/credicambios/internal/repository"
	"github.com/fairyhunter13/credicambios/internal/service"
	appvalidator "github.com/fairyhunter13/credicambios/internal/validator"
	"github.com/fairyhunter13/credicambios/pkg/database"
)

const serviceName = "credicambios"

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	initLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open storage with retry; the schema is applied on every start.
	db, err := database.Open(ctx, database.Options{
		Dialect:      cfg.DB.Dialect(),
		DSN:          cfg.DB.DSN(),
		MaxOpenConns: cfg.DB.MaxConns,
		MaxRetries:   cfg.DB.Retries,
	})
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("failed to connect to database")
	}
	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	broker := feed.NewBroker(feed.DefaultBuffer)

	customerRepo := repository.NewCustomerRepository(db)
	txnRepo := repository.NewTransactionRepository(db)

	options := []service.Option{service.WithOrderPublisher(broker)}
	var profileCache service.ProfileCache
	rdb := connectCache(ctx, cfg.Redis)
	if rdb != nil {
		pc := cache.NewProfileCache(rdb, cfg.Redis.TTL)
		profileCache = pc
		options = append(options, service.WithProfileCache(pc))
	}

	loyaltyService := service.NewLoyaltyService(db, customerRepo, txnRepo, service.Options{
		DefaultBranch: cfg.Ledger.DefaultBranch,
		HistoryLimit:  cfg.Ledger.HistoryLimit,
	}, options...)
	adminService := service.NewAdminService(db, customerRepo, txnRepo, profileCache, cfg.Ledger.FeedLimit)

	tokens, err := auth.NewManager(cfg.Admin.Secret, cfg.Admin.TokenKey, cfg.Admin.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize admin tokens")
	}
	if !tokens.Enabled() {
		log.Warn().Msg("ADMIN_SECRET is empty, admin login is disabled")
	}
	loginLimiter := middleware.NewRateLimiter(cfg.Admin.LoginRate, cfg.Admin.LoginBurst)

	// No WriteTimeout: it would cut the SSE order feed.
	// UnescapePath: national IDs may hold any non-space character.
	app := fiber.New(fiber.Config{
		AppName:      "credicambios",
		ReadTimeout:  30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
		UnescapePath: true,
	})

	// Middleware
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(requestid.New()) // Adds X-Request-ID header to all requests
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.Server.AllowOrigins}))

	validate := appvalidator.New()

	handler.Routes{
		Health:       handler.NewHealthHandler(db, serviceName, version),
		Customers:    handler.NewCustomerHandler(loyaltyService, validate),
		Purchases:    handler.NewPurchaseHandler(loyaltyService, validate),
		Auth:         handler.NewAuthHandler(tokens, validate),
		Admin:        handler.NewAdminHandler(adminService),
		Feed:         handler.NewFeedHandler(adminService, broker, 0),
		AdminGuard:   middleware.AdminAuth(tokens),
		LoginLimiter: loginLimiter.Limit(),
	}.Register(app)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.Server.Port).Str("version", version).Msg("starting server")
		return app.Listen(":" + cfg.Server.Port)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
		)
		defer cancel()

		// End live feed streams so in-flight SSE requests can complete.
		broker.Close()

		log.Info().Msg("waiting for in-flight requests to complete...")
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
	}

	// Close storage AFTER server shutdown (even if shutdown timed out)
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis client")
		}
	}
	log.Info().Msg("closing database connections...")
	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("error closing database")
	}
	log.Info().Msg("server stopped")
}

// connectCache returns a redis client when one is configured and reachable.
// The API keeps serving from the database when the cache is unavailable.
func connectCache(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if !cfg.Enabled() {
		return nil
	}
	rdb, err := cache.Connect(ctx, cache.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		TTL:      cfg.TTL,
	})
	if err != nil {
		log.Warn().Err(err).Str("addr", cfg.Addr).Msg("profile cache unavailable, continuing without it")
		return nil
	}
	log.Info().Str("addr", cfg.Addr).Msg("profile cache enabled")
	return rdb
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Pretty {
		// Human-readable output for development
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
