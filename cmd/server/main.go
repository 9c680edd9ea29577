package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	httpAdapter "github.com/ogdenik/bankcore/internal/adapter/http"
	"github.com/ogdenik/bankcore/internal/adapter/http/handler"
	"github.com/ogdenik/bankcore/internal/adapter/http/middleware"
	"github.com/ogdenik/bankcore/internal/adapter/identity"
	postgresRepo "github.com/ogdenik/bankcore/internal/adapter/repository/postgres"
	redisRepo "github.com/ogdenik/bankcore/internal/adapter/repository/redis"
	"github.com/ogdenik/bankcore/internal/infrastructure/auth"
	"github.com/ogdenik/bankcore/internal/infrastructure/config"
	"github.com/ogdenik/bankcore/internal/infrastructure/logger"
	"github.com/ogdenik/bankcore/internal/infrastructure/metrics"
	"github.com/ogdenik/bankcore/internal/infrastructure/postgres"
	"github.com/ogdenik/bankcore/internal/infrastructure/redis"
	"github.com/ogdenik/bankcore/internal/scheduler"
	"github.com/ogdenik/bankcore/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	transferPolicy, interestPolicy, err := buildPolicies(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid policy configuration")
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New(prometheus.DefaultRegisterer)

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	userRepo := postgresRepo.NewUserRepository(pool)
	cache := redisRepo.NewCache(redisClient)
	idGen := postgresRepo.NewULIDGenerator()

	// Use cases
	resolver := identity.NewResolver(userRepo, accountRepo, cache, log)
	transferUC := usecase.NewTransferUseCase(txManager, accountRepo, ledgerRepo, resolver, idGen, transferPolicy, m, log)
	interestUC := usecase.NewInterestUseCase(accountRepo, interestPolicy, m, log)
	userUC := usecase.NewUserUseCase(txManager, userRepo, accountRepo, cache, idGen, m, log)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)

	// HTTP
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AuthHandler:     handler.NewAuthHandler(userUC, jwtManager),
		TransferHandler: handler.NewTransferHandler(transferUC),
		UserHandler:     handler.NewUserHandler(userUC),
		HealthHandler:   handler.NewHealthHandler(pool, redisClient),
		AuthMiddleware:  middleware.NewAuthMiddleware(jwtManager),
		Logger:          log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	accrual := scheduler.New("interest-accrual", cfg.AccrualInterval, interestUC.ApplyInterestToAll, log)
	accrual.Start(ctx)

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	accrual.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func buildPolicies(cfg *config.Config) (usecase.TransferPolicy, usecase.InterestPolicy, error) {
	transferPolicy := usecase.DefaultTransferPolicy()
	interestPolicy := usecase.DefaultInterestPolicy()

	minAmount, err := decimal.NewFromString(cfg.TransferMinAmount)
	if err != nil {
		return transferPolicy, interestPolicy, fmt.Errorf("invalid TRANSFER_MIN_AMOUNT: %w", err)
	}

	maxAmount, err := decimal.NewFromString(cfg.TransferMaxAmount)
	if err != nil {
		return transferPolicy, interestPolicy, fmt.Errorf("invalid TRANSFER_MAX_AMOUNT: %w", err)
	}

	rate, err := decimal.NewFromString(cfg.InterestRate)
	if err != nil {
		return transferPolicy, interestPolicy, fmt.Errorf("invalid INTEREST_RATE: %w", err)
	}

	capMultiplier, err := decimal.NewFromString(cfg.BalanceCapMultiplier)
	if err != nil {
		return transferPolicy, interestPolicy, fmt.Errorf("invalid BALANCE_CAP_MULTIPLIER: %w", err)
	}

	transferPolicy.MinAmount = minAmount
	transferPolicy.MaxAmount = maxAmount
	transferPolicy.MaxAttempts = cfg.TransferMaxAttempts
	interestPolicy.Rate = rate
	interestPolicy.CapMultiplier = capMultiplier

	return transferPolicy, interestPolicy, nil
}
