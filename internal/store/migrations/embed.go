// Package migrations holds the goose SQL migrations for every supported dialect.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var Migrations embed.FS
