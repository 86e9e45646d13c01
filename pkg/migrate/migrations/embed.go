// Package migrations holds the remote schema as embedded goose SQL files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
