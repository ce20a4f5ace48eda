package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema; each file registers one versioned step.
var Migrations = migrate.NewMigrations()
