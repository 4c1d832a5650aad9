// Package migrations embeds the SQL migrations applied by the server on boot
// (DB_AUTO_MIGRATE) and by the integration test containers.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
