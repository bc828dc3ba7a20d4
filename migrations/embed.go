// Package migrations holds the SQL schema migrations of the service.
package migrations

import "embed"

// FS contains the *.up.sql and *.down.sql files
//
//go:embed *.sql
var FS embed.FS
