// Package migrations holds the PostgreSQL schema.
package migrations

import "embed"

// FS embeds the up and down scripts.
//
//go:embed *.sql
var FS embed.FS

// Up returns the schema creation script.
func Up() (string, error) {
	data, err := FS.ReadFile("0001_init.up.sql")
	return string(data), err
}
