package migrations

import "embed"

// Migration files are embedded at compile time so a rulegate binary can
// bootstrap its rule store without any files on disk.
//
//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
