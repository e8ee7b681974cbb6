package migrations

import "embed"

// FS contains embedded SQLite migrations for the local key-value store.
//
//go:embed *.sql
var FS embed.FS
