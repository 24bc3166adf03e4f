// Package httpserver runs the HTTP listener with graceful shutdown and serves
// liveness and readiness probes.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP,
//	    httpserver.WithLogger(log),
//	    httpserver.WithStopHook(func(context.Context) error { return rdb.Close() }),
//	)
//	r.Get("/health/live", httpserver.Liveness())
//	r.Get("/health/ready", httpserver.Readiness(log, cfg.HTTP.HealthTimeout,
//	    httpserver.Check{Name: "redis", Fn: redis.Healthcheck(rdb)},
//	    httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)},
//	))
//	err := srv.Run(ctx, r)
//
// Run returns when ctx is cancelled or on SIGINT/SIGTERM. Shutdown drains
// in-flight requests, then runs stop hooks within the same deadline.
package httpserver
