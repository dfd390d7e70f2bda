// Package migrations embeds the goose migrations of the SQLite storage area.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
