// Package migrations embeds the goose migrations of the local relational
// store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
