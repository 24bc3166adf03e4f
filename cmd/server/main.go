// Command server runs the order gateway: the order workflow API, the in-app
// notification inbox, health checks and Prometheus metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/scribeworks/ordergate/pkg/counter"
	"github.com/scribeworks/ordergate/pkg/email"
	"github.com/scribeworks/ordergate/pkg/httpserver"
	"github.com/scribeworks/ordergate/pkg/logger"
	"github.com/scribeworks/ordergate/pkg/mongo"
	"github.com/scribeworks/ordergate/pkg/notifications"
	"github.com/scribeworks/ordergate/pkg/pg"
	"github.com/scribeworks/ordergate/pkg/redis"
	"github.com/scribeworks/ordergate/pkg/requestid"
	"github.com/scribeworks/ordergate/pkg/website"
	"github.com/scribeworks/ordergate/svc/orders"
)

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.Service),
		logger.WithContextExtractors(requestid.LoggerExtractor(), website.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	policy, err := loadPolicy(cfg.PolicyPath)
	if err != nil {
		return fmt.Errorf("load policy %s: %w", cfg.PolicyPath, err)
	}

	// closers run once, in reverse, on startup failure or as a stop hook.
	var closers []httpserver.Hook
	closeAll := sync.OnceValue(func() error {
		closeCtx := context.WithoutCancel(ctx)
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i](closeCtx))
		}
		return errors.Join(errs...)
	})
	defer func() {
		if err != nil {
			err = errors.Join(err, closeAll())
		}
	}()

	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	closers = append(closers, func(context.Context) error { return rdb.Close() })

	store, err := counter.NewRedisStore(rdb, counter.WithKeyPrefix(cfg.Redis.KeyPrefix))
	if err != nil {
		return err
	}

	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	closers = append(closers, func(context.Context) error { pool.Close(); return nil })

	if err := pg.Migrate(ctx, pool, cfg.PG, log, pg.WithMigrationsFS(orders.Migrations)); err != nil {
		return err
	}

	checks := []httpserver.Check{
		{Name: "redis", Fn: redis.Healthcheck(rdb)},
		{Name: "postgres", Fn: pg.Healthcheck(pool)},
	}

	var inboxStorage notifications.Storage = notifications.NewMemoryStorage()
	if cfg.Mongo.Enabled() {
		client, err := mongo.Connect(ctx, cfg.Mongo)
		if err != nil {
			return err
		}
		closers = append(closers, func(ctx context.Context) error { return client.Disconnect(ctx) })

		inboxStorage, err = notifications.NewMongoStorage(ctx, client.Database(cfg.Mongo.Database))
		if err != nil {
			return err
		}
		checks = append(checks, httpserver.Check{Name: "mongo", Fn: mongo.Healthcheck(client)})
	} else {
		log.WarnContext(ctx, "MONGODB_URL is not set, notification inbox is kept in memory")
	}

	mailer, err := email.New(cfg.Email, log.With(logger.Component("email")))
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, policy, deps{
		store:  counter.WithTimeout(store, cfg.Redis.OperationTimeout),
		repo:   orders.NewPostgresRepository(pool),
		inbox:  inboxStorage,
		mailer: mailer,
		checks: checks,
		logger: log,
	})
	if err != nil {
		return err
	}

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.WithStopHook(func(context.Context) error { return closeAll() }),
	)
	if err := srv.Run(ctx, a.router); err != nil {
		return err
	}
	return nil
}
