package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	"github.com/mvaleed/conduit/internal/auth"
	"github.com/mvaleed/conduit/internal/config"
	"github.com/mvaleed/conduit/internal/event"
	"github.com/mvaleed/conduit/internal/logging"
	"github.com/mvaleed/conduit/internal/service"
	"github.com/mvaleed/conduit/internal/storage"
	"github.com/mvaleed/conduit/internal/storage/memory"
	"github.com/mvaleed/conduit/internal/storage/postgres"
	"github.com/mvaleed/conduit/internal/storage/redis"
	grpcTransport "github.com/mvaleed/conduit/internal/transport/grpc"
	httpTransport "github.com/mvaleed/conduit/internal/transport/http"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.AppName, cfg.Environment, cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("application error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repos, tx, closeStorage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStorage()

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer rdb.Close()

		tagCache := redis.NewTagCache(repos.Tags, rdb, cfg.TagCacheTTL, logger)
		repos.Tags = tagCache
		repos.Articles = redis.NewArticleRepository(repos.Articles, tagCache)
		tx = redis.NewTransactor(tx, tagCache)
		logger.WithField("addr", cfg.RedisAddr).Info("tag cache enabled")
	}

	var publisher event.Publisher
	if cfg.RabbitMQURL != "" {
		rabbit, err := event.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			return fmt.Errorf("connect to rabbitmq: %w", err)
		}
		publisher = rabbit
		logger.WithField("exchange", cfg.RabbitMQExchange).Info("publishing events to rabbitmq")
	} else {
		publisher = event.NewLoggingPublisher(logger)
	}
	defer publisher.Close()

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		SecretKey: cfg.JWTSecretKey,
		TokenTTL:  cfg.TokenTTL,
		Issuer:    cfg.JWTIssuer,
		Audience:  []string{},
	})
	hasher := auth.NewHasher(cfg.BcryptCost)

	cascade := service.NewArticleCascade(tx, repos.Articles, repos.Comments)

	userService := service.NewUserService(repos.Users, hasher, publisher, logger)
	profileService := service.NewProfileService(repos.Profiles, publisher, logger)
	articleService := service.NewArticleService(repos.Articles, repos.Profiles, repos.Tags, cascade, publisher, logger)
	commentService := service.NewCommentService(repos.Comments, repos.Profiles, publisher, logger)

	errChan := make(chan error, 2)

	httpServer := httpTransport.NewServer(
		cfg,
		userService,
		profileService,
		articleService,
		commentService,
		jwtManager,
		logger,
	)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		logger.WithField("addr", addr).Info("starting HTTP server")
		if err := httpServer.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	grpcServer := grpcTransport.NewServer(
		profileService,
		articleService,
		commentService,
		jwtManager,
		logger,
	)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.GRPCPort)
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			errChan <- fmt.Errorf("gRPC listen: %w", err)
			return
		}
		logger.WithField("addr", addr).Info("starting gRPC server")
		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.WithField("signal", sig.String()).Info("received shutdown signal")
	case err := <-errChan:
		logger.WithError(err).Error("server error")
		return err
	}

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown error")
	}

	grpcServer.GracefulStop()

	cancel()

	logger.Info("shutdown complete")
	return nil
}

// openStorage connects the configured backend. Postgres is migrated before
// use.
func openStorage(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*storage.Repositories, storage.Transactor, func(), error) {
	switch cfg.Storage {
	case config.StorageMemory:
		logger.Warn("using in-memory storage, data is lost on exit")
		store := memory.New()
		return store.Repositories(), store, func() {}, nil

	case config.StoragePostgres:
		if err := postgres.Migrate(cfg.DatabaseURL, logger); err != nil {
			return nil, nil, nil, fmt.Errorf("migrate database: %w", err)
		}

		logger.Info("connecting to database")
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		logger.Info("database connected")
		return db.Repositories(), db, db.Close, nil
	}

	return nil, nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
}
