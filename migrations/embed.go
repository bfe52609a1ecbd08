// Package migrations holds the schema applied by database.RunMigrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
