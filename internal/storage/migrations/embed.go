// Package migrations embeds and applies the schema for both storage backends.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// PostgresFS embeds all PostgreSQL migration files.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds all ClickHouse migration files.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS

// Migration is one schema file.
type Migration struct {
	Name string // file name, e.g. 001_saved_strategies.sql
	SQL  string
}

// Load returns the non-empty .sql files under dir, ordered by name.
func Load(fsys fs.FS, dir string) ([]Migration, error) {
	names, err := fs.Glob(fsys, path.Join(dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("list %s migrations: %w", dir, err)
	}

	var out []Migration
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		sql := strings.TrimSpace(string(data))
		if sql == "" {
			continue
		}
		out = append(out, Migration{Name: path.Base(name), SQL: sql})
	}
	return out, nil
}
