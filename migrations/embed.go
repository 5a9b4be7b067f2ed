// Package migrations holds the versioned SQL schema, embedded so the
// migrate binary runs without a checkout of the repository.
package migrations

import "embed"

// FS contains every *.up.sql and *.down.sql file
//
//go:embed *.sql
var FS embed.FS
