package migrations

import "embed"

// FS contains embedded SQLite migrations for gradesync documents.
//
//go:embed *.sql
var FS embed.FS
