// Package assets embeds the SQL schema for the diagnostic dump
// database. go:embed directives cannot reference a parent directory, so
// the schema lives here at the module root rather than inside
// internal/store.
package assets

import "embed"

// SchemaFS contains the embedded SQL schema for store.Dump.
//
//go:embed schema/*.sql
var SchemaFS embed.FS
