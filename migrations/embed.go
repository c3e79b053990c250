// Package migrations embeds the SQL migration files so the migrate binary
// ships schema changes with the build.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
