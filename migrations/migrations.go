// Package migrations embeds the SQL schema migrations for each supported
// database driver. Files follow the golang-migrate naming scheme
// NNNNNN_name.{up,down}.sql.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
