// Package migrations embeds the SQL migrations for the global catalog.
// Per-tenant schemas are not migrated from here; they are provisioned and
// repaired at runtime by the schema provisioner.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
