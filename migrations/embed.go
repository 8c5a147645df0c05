// Package migrations embeds the schema files so the server binary can
// migrate without a checkout.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
