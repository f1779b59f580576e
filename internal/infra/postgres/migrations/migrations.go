// Package migrations holds the bun migrations for the question bank and
// leaderboard tables.
package migrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()
