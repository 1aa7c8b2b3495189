package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/battle-arena/internal/artwork"
	"github.com/battle-arena/internal/config"
	"github.com/battle-arena/internal/gateway"
	"github.com/battle-arena/internal/handler"
	"github.com/battle-arena/internal/linkcheck"
	"github.com/battle-arena/internal/logging"
	"github.com/battle-arena/internal/metrics"
	"github.com/battle-arena/internal/ratelimit"
	"github.com/battle-arena/internal/repository"
	"github.com/battle-arena/internal/service"
	"github.com/battle-arena/internal/worker"
)

const serviceName = "arena"

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("path", configFile).Wrap(err)
	}

	log, closer, err := logging.Setup(serviceName, Version, cfg.Log)
	if err != nil {
		return oops.Code("LOGGING_SETUP_FAILED").Wrap(err)
	}
	defer closer.Close()

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Cancelled on SIGINT/SIGTERM; background work derives from it
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := initDatabase(cfg)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("driver", cfg.Database.Driver).Wrap(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if cfg.Database.AutoMigrate {
		if err := repository.AutoMigrate(db); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "auto migrate").Wrap(err)
		}
	}

	// Initialize Redis
	guard, rdb := initLoginGuard(cfg, log)
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Warn("error closing redis connection", "error", err)
			}
		}()
	}

	m := metrics.New()

	store, err := artwork.New(ctx, cfg.Artwork)
	if err != nil {
		return oops.Code("ARTWORK_CONFIG_INVALID").Wrap(err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	characterRepo := repository.NewCharacterRepository(db)

	// Initialize services
	gw := gateway.NewClient(cfg.Gateway, m)
	authService := service.NewAuthService(userRepo, cfg.Auth, guard, m, log)
	userService := service.NewUserService(userRepo)
	characterService := service.NewCharacterService(
		characterRepo,
		gw,
		linkcheck.NewProber(cfg.LinkCheck.Timeout()),
		service.WithArtworkStore(store),
		service.WithMetrics(m),
		service.WithLogger(log),
		service.WithOwnerOnlyUpdate(cfg.Characters.OwnerOnlyUpdate),
	)
	battleService := service.NewBattleService(characterRepo, gw, cfg.Gateway)

	router := handler.NewRouter(handler.Dependencies{
		AuthService:      authService,
		UserService:      userService,
		CharacterService: characterService,
		BattleService:    battleService,
		Metrics:          m,
		Logger:           log,
		Build:            handler.BuildInfo{Version: Version, Commit: Commit, BuildTime: BuildTime},
		Ping:             sqlDB.PingContext,
		BasePath:         cfg.Server.BasePath,
		OwnerOnlyUpdate:  cfg.Characters.OwnerOnlyUpdate,
	})

	if interval := cfg.LinkCheck.SweepInterval(); interval > 0 {
		sweeper := worker.NewLinkSweeper(characterService, interval, log)
		go sweeper.Start(ctx)
		defer sweeper.Stop()
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", addr, "base_path", cfg.Server.BasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		return oops.Code("SERVER_FAILED").With("addr", addr).Wrap(err)
	}

	log.Info("shutting down server")

	// Graceful shutdown with 10 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SHUTDOWN_FAILED").Wrap(err)
	}

	log.Info("server exited properly")
	return nil
}

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.Server.Mode == "release" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}
	return repository.Open(cfg.Database, gormLogger)
}

// initLoginGuard returns a redis-backed guard when redis is enabled. The
// client is returned so the caller can close it.
func initLoginGuard(cfg *config.Config, log *slog.Logger) (ratelimit.Guard, *redis.Client) {
	if !cfg.Redis.Enabled {
		log.Info("login guard disabled, redis not enabled")
		return ratelimit.NoopGuard{}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	guard := ratelimit.NewRedisGuard(rdb, cfg.LoginGuard.MaxFailures, cfg.LoginGuard.Lockout())
	return guard, rdb
}
