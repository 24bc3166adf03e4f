// Package logger builds *slog.Logger instances with functional options and
// provides attribute helpers that keep key names consistent across packages.
//
// New picks a JSON or text handler, attaches static attributes and wraps the
// handler with LogHandlerDecorator, which runs ContextExtractor callbacks on
// every record (request IDs, website IDs and similar request-scoped values).
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "ordergate"),
//	    logger.WithContextExtractors(website.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
//
//	log.LogAttrs(ctx, slog.LevelWarn, "rate limit store unavailable",
//	    logger.Scope("login"),
//	    logger.Error(err),
//	)
package logger
