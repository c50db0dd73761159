// Package command builds the exact argument vectors handed to the
// external tools. Builders only ever produce discrete tokens, never a
// shell string: every user-supplied value stays one array element and is
// never concatenated into anything a shell would interpret.
package command

// Invocation is one external command, ready for the executor.
type Invocation struct {
	Program string
	Args    []string
}

// Argv returns the full vector including the program name, mainly for
// logging.
func (i Invocation) Argv() []string {
	return append([]string{i.Program}, i.Args...)
}
