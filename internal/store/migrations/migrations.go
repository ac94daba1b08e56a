package migrations

import "embed"

// FS holds the session store schema.
//
//go:embed *.sql
var FS embed.FS
