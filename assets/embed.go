// Package assets embeds files shipped inside the server binary.
package assets

import "embed"

// Migrations holds sql/*.sql, applied in lexical order by history.Migrate.
//
//go:embed sql/*.sql
var Migrations embed.FS
