// Package migrations embeds the golang-migrate SQL files applied by
// cmd/migrate and by the Postgres integration fixtures.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
