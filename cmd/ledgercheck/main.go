/**
 * @description
 * ledgercheck is the operational self-check binary for the ledger engine. It wires the
 * full production stack — configuration, the account store backend (PostgreSQL when
 * DATABASE_URL is set, the JSON snapshot store otherwise), the RabbitMQ event producer,
 * and the optional Redis rate limiter — then runs a deposit/transfer/receipt round-trip
 * between two freshly opened scratch accounts and reports the outcome.
 *
 * Exit status 0 means every engine operation behaved; anything else is a wiring or
 * storage problem worth paging on.
 */

package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/zenithpay/ledger-service/internal/config"
	"github.com/zenithpay/ledger-service/internal/domain"
	"github.com/zenithpay/ledger-service/internal/ledger"
	"github.com/zenithpay/ledger-service/internal/store"
	"github.com/zenithpay/ledger-service/pkg/events"
	"github.com/zenithpay/ledger-service/pkg/logging"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		os.Stderr.WriteString("config load failed: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		os.Stderr.WriteString("logger init failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// Select the store backend.
	var accountStore store.Store
	if cfg.DatabaseURL != "" {
		poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database url parse failed", zap.Error(err))
		}
		poolConfig.MaxConns = 20
		poolConfig.MaxConnLifetime = 30 * time.Minute
		poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

		dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			logger.Fatal("database connection failed", zap.Error(err))
		}
		defer dbpool.Close()

		pg := store.NewPostgresStore(dbpool)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal("schema check failed", zap.Error(err))
		}
		accountStore = pg
		logger.Info("using postgres store")
	} else {
		snap, err := store.NewSnapshotStore(cfg.SnapshotPath)
		if err != nil {
			logger.Fatal("snapshot store open failed", zap.String("path", cfg.SnapshotPath), zap.Error(err))
		}
		accountStore = snap
		logger.Info("using json snapshot store", zap.String("path", cfg.SnapshotPath))
	}

	// Event producer is optional; fall back to a no-op when the broker is down.
	var producer events.Publisher
	if strings.TrimSpace(cfg.RabbitMQURL) != "" {
		p, err := events.NewProducer(cfg.RabbitMQURL, cfg.EventExchange)
		if err != nil {
			logger.Warn("rabbitmq unavailable; events disabled", zap.Error(err))
			producer = &events.NoopPublisher{Logger: logger}
		} else {
			defer p.Close()
			producer = p
			logger.Info("rabbitmq producer connected", zap.String("exchange", cfg.EventExchange))
		}
	} else {
		producer = &events.NoopPublisher{Logger: logger}
	}

	limits := ledger.LimitTable{
		domain.Tier1: cfg.Tier1DailyLimitKobo,
		domain.Tier2: cfg.Tier2DailyLimitKobo,
		domain.Tier3: cfg.Tier3DailyLimitKobo,
	}
	engine := ledger.NewEngine(accountStore, ledger.NewDailyLimitPolicy(limits), producer, logger)
	engine.SetCommitAttempts(cfg.CommitRetryAttempts)

	if cfg.RedisURL != "" && cfg.TransferRateLimitPerMinute > 0 {
		redisOptions, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Warn("redis url parse failed; rate limiting disabled", zap.Error(err))
		} else {
			redisClient := redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
			if err := redisClient.Ping(pingCtx).Err(); err != nil {
				logger.Warn("redis ping failed; rate limiting disabled", zap.Error(err))
				redisClient.Close()
			} else {
				defer redisClient.Close()
				engine.SetRateLimiter(
					ledger.NewRedisRateLimiter(redisClient, cfg.RedisRateLimitPrefix),
					cfg.TransferRateLimitPerMinute,
				)
				logger.Info("redis rate limiter enabled",
					zap.Int("transfers_per_minute", cfg.TransferRateLimitPerMinute))
			}
			cancelPing()
		}
	}

	if err := selfCheck(ctx, engine, logger); err != nil {
		logger.Error("self-check failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("self-check passed")
}

// selfCheck opens two scratch accounts and walks them through the full operation set.
func selfCheck(ctx context.Context, engine *ledger.Engine, logger *zap.Logger) error {
	suffix := uuid.NewString()[:8]

	alpha, err := engine.OpenAccount(ctx, ledger.OpenAccountParams{
		AccountID:   "selfcheck-a-" + suffix,
		DisplayName: "Self Check A",
		Credential:  uuid.NewString(),
	})
	if err != nil {
		return err
	}
	beta, err := engine.OpenAccount(ctx, ledger.OpenAccountParams{
		AccountID:   "selfcheck-b-" + suffix,
		DisplayName: "Self Check B",
		Credential:  uuid.NewString(),
	})
	if err != nil {
		return err
	}
	logger.Info("scratch accounts opened",
		zap.String("a", alpha.AccountNumber), zap.String("b", beta.AccountNumber))

	if _, err := engine.Deposit(ctx, alpha.ID, 1000); err != nil {
		return err
	}
	result, err := engine.Transfer(ctx, alpha.ID, beta.AccountNumber, 400)
	if err != nil {
		return err
	}
	if _, err := engine.LookupReceipt(ctx, alpha.ID, result.Reference); err != nil {
		return err
	}
	if _, err := engine.LookupReceipt(ctx, beta.ID, result.Reference); err != nil {
		return err
	}
	name, err := engine.ResolveAccountName(ctx, beta.AccountNumber)
	if err != nil {
		return err
	}
	logger.Info("round-trip complete",
		zap.String("reference", result.Reference),
		zap.String("recipient", name))

	if _, err := engine.Withdraw(ctx, beta.ID, 400); err != nil {
		return err
	}
	if _, err := engine.Withdraw(ctx, alpha.ID, 600); err != nil {
		return err
	}
	return nil
}
