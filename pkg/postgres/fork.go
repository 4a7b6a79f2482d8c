package postgres

import (
	stderrors "errors"
	"io/fs"
	"os"
	"os/exec"

	"github.com/caretaker-tools/caretaker/pkg/config"
	"github.com/pkg/errors"
)

// The console, dump and restore commands hand control to the standard
// PostgreSQL client tools. The tools establish their own connection, so
// no caretaker pool may exist when they start; restore in particular
// requires zero connections to the target database because it drops and
// recreates it.
//
// Go cannot portably replace the current process image, so the tool runs
// as a child with inherited stdio and we propagate its exit code as our
// own. No cancellation or retry is layered on top: once the tool runs,
// success and failure reporting are entirely its business.

// Console starts an interactive psql session against the configured
// database. Returns the tool's exit code.
func Console(cfg *config.Database) (int, error) {
	return runTool("psql", ConnectionURI(cfg))
}

// Dump writes a custom-format pg_dump of the configured database to path.
// pg_dump runs in a single snapshot, so this is safe while the
// application is reading and writing the database.
func Dump(cfg *config.Database, path string) (int, error) {
	return runTool("pg_dump",
		"--dbname", ConnectionURI(cfg),
		"--format", "custom",
		"--file", path,
	)
}

// Restore rebuilds the configured database from a dump created by Dump.
// The connection URI points at the administrative database, never the
// target: pg_restore --create drops and recreates the target itself and
// would be blocked by its own connection otherwise.
func Restore(cfg *config.Database, dumpPath string) (int, error) {
	return runTool("pg_restore",
		"--dbname", AdminConnectionURI(cfg),
		"--clean",
		"--if-exists",
		"--create",
		dumpPath,
	)
}

// runTool runs an external program with inherited stdio and returns its
// exit code. An error is only returned when the program never started.
func runTool(program string, args ...string) (int, error) {
	cmd := exec.Command(program, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		// The tool ran; its exit code becomes ours.
		return exitErr.ExitCode(), nil
	}

	return 0, classifyStartError(program, err)
}

// classifyStartError turns a failed program start into an operator-facing
// error naming the program and the cause.
func classifyStartError(program string, err error) error {
	switch {
	case stderrors.Is(err, exec.ErrNotFound):
		return errors.Wrapf(err, "`%s` was not found in your PATH", program)
	case stderrors.Is(err, fs.ErrPermission):
		return errors.Wrapf(err, "you don't have sufficient permissions to execute `%s`", program)
	default:
		return errors.Wrapf(err, "an error occurred while trying to execute `%s`", program)
	}
}
