package migrations

import "embed"

// Migrations holds the golang-migrate files for the SQLite driver.
//
//go:embed *.sql
var Migrations embed.FS
