package migrator

import (
	"embed"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

//go:embed migrations/*.sql
var scripts embed.FS

// Migration is one code-defined schema migration. The set of migrations
// is embedded in the binary; the database's __migrations table records
// which of them have been applied.
type Migration struct {
	// ID is the 1-based position of the migration. IDs are contiguous:
	// a gap or duplicate is a build defect, not a runtime condition.
	ID int64

	// Name is the descriptive part of the filename, e.g. "create_users"
	Name string

	// Script is the full SQL text of the migration
	Script string
}

// All returns the embedded migration set, ordered by ID.
func All() ([]Migration, error) {
	return loadFrom(scripts, "migrations")
}

// loadFrom reads migrations from a filesystem directory. Filenames must
// follow NNNN_name.sql with contiguous IDs starting at 1.
func loadFrom(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read migration directory")
	}

	migrations := make([]Migration, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		id, descr, err := parseFilename(name)
		if err != nil {
			return nil, err
		}

		script, err := fs.ReadFile(fsys, dir+"/"+name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read migration script %s", name)
		}

		migrations = append(migrations, Migration{
			ID:     id,
			Name:   descr,
			Script: string(script),
		})
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].ID < migrations[j].ID })

	for i, m := range migrations {
		if m.ID != int64(i)+1 {
			return nil, errors.Errorf(
				"migration IDs must be contiguous starting at 1, but found ID %d at position %d",
				m.ID, i+1,
			)
		}
	}

	return migrations, nil
}

// parseFilename splits "0002_create_sessions.sql" into (2, "create_sessions").
func parseFilename(filename string) (int64, string, error) {
	base := strings.TrimSuffix(filename, ".sql")
	idPart, name, found := strings.Cut(base, "_")
	if !found || name == "" {
		return 0, "", errors.Errorf("invalid migration filename %q: expected NNNN_name.sql", filename)
	}

	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return 0, "", errors.Wrapf(err, "invalid migration filename %q: bad ID", filename)
	}

	return id, name, nil
}
