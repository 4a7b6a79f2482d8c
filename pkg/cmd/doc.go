// Package cmd builds the caretaker CLI command tree. Each command
// constructor returns a *cli.Command; Run wires them under the root
// command and executes it.
package cmd
