// Package migrator applies the embedded schema migrations and maintains
// the __migrations bookkeeping table. The same migrations also run
// automatically when the application server starts; the caretaker `db
// migrate` command runs them on demand, and `db unsafe-overwrite-migrations`
// reconciles the bookkeeping table with the binary's migration set.
package migrator
