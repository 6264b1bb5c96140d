//go:build sqlite_cgo && !purego

package journal

// Compiled with the sqlite_cgo tag. Requires a C toolchain.
//
// Build command:
//   CGO_ENABLED=1 go build -tags sqlite_cgo ./...
//
// Driver used: github.com/mattn/go-sqlite3

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the database/sql driver name
	DriverName = "sqlite3"

	// BuildMode describes the current build configuration
	BuildMode = "cgo"
)
