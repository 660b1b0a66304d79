// Package migrations embeds the Postgres schema applied at startup by
// database.RunMigrations.
package migrations

import "embed"

// FS holds every *.up.sql file of this directory.
//
//go:embed *.sql
var FS embed.FS
