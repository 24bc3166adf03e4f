package orders

import "embed"

// Migrations holds the goose migrations for the orders schema. Pass it to
// pg.Migrate with pg.WithMigrationsFS and MigrationsPath "migrations".
//
//go:embed migrations/*.sql
var Migrations embed.FS
