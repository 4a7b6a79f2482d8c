package postgres

import (
	"fmt"

	"github.com/caretaker-tools/caretaker/pkg/config"
	"github.com/caretaker-tools/caretaker/pkg/consts"
)

const upperhex = "0123456789ABCDEF"

// ConnectionURI builds a postgresql:// URI from the database config.
//
// User, password and database name are percent-encoded so that special
// characters survive the trip through the URI; host and port are inserted
// verbatim. This is the single place the password leaves its Secret, and
// the returned string must be treated as sensitive (never logged).
func ConnectionURI(cfg *config.Database) string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s",
		percentEncode(cfg.User),
		percentEncode(cfg.Password.Expose()),
		cfg.Host,
		cfg.Port,
		percentEncode(cfg.Database),
	)
}

// AdminConnectionURI builds a connection URI against the administrative
// database instead of the configured target. Restore uses this because
// pg_restore needs to drop and recreate the target database, which cannot
// be done while connected to it.
func AdminConnectionURI(cfg *config.Database) string {
	admin := *cfg
	admin.Database = consts.AdminDatabase
	return ConnectionURI(&admin)
}

// percentEncode escapes every byte outside [A-Za-z0-9] as %XX. This is
// stricter than standard URL escaping on purpose: it keeps the builder
// independent of which characters are reserved in which URI component.
func percentEncode(s string) string {
	var out []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out = append(out, c)
		default:
			out = append(out, '%', upperhex[c>>4], upperhex[c&0x0f])
		}
	}
	return string(out)
}
