// Package pg opens the PostgreSQL pool used by the order repository and
// applies goose migrations.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    // abort startup
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, log, pg.WithMigrationsFS(orders.Migrations)); err != nil {
//	    // abort startup
//	}
//
// Error helpers classify pgx errors: IsNotFoundError, IsDuplicateKeyError and
// IsForeignKeyViolationError.
package pg
