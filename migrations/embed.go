// Package migrations embeds the versioned PostgreSQL schema migrations.
package migrations

import "embed"

// FS holds every *.up.sql and *.down.sql file of this directory
//
//go:embed *.sql
var FS embed.FS
