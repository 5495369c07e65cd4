// Package migrations holds the tourdesk schema: tenancy, experiences with
// their tombstones, and the audit log.
package migrations

import "embed"

// FS is handed to goose.NewProvider by `api migrate` and the
// integration test setup.
//
//go:embed *.sql
var FS embed.FS
