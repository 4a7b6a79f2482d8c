// Package prompt implements the interactive confirmation gate that guards
// destructive database operations.
//
// The gate is deliberately strict: only the exact, case-sensitive token
// "yes" proceeds. "Yes", "y", or an empty line all abort. Commands that
// need to run unattended opt out with an explicit flag instead of piping
// input at the prompt.
package prompt

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// ConfirmToken is the only input that counts as confirmation.
const ConfirmToken = "yes"

// Confirmer is the interface consumed by destructive operations. It is
// satisfied by *Prompter and by scripted test doubles.
type Confirmer interface {
	// ConfirmYes blocks for one line of operator input and reports whether
	// it was the exact confirmation token. A non-matching line is not an
	// error; it simply means "declined".
	ConfirmYes() (bool, error)
}

// Prompter reads confirmations from an operator-input stream, usually
// os.Stdin.
type Prompter struct {
	in *bufio.Reader
}

// New creates a Prompter reading from r.
func New(r io.Reader) *Prompter {
	return &Prompter{in: bufio.NewReader(r)}
}

// ConfirmYes reads a single line and compares it to ConfirmToken. Only the
// trailing line ending is stripped; interior whitespace is preserved, so
// " yes" declines.
func (p *Prompter) ConfirmYes() (bool, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, errors.Wrap(err, "failed to read confirmation input")
	}

	line = strings.TrimRight(line, "\r\n")
	return line == ConfirmToken, nil
}
