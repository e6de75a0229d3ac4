package cli

import (
	"bufio"
	"context"
	"os"
)

// Root prints the greeting, prompts for an initial login and hands control
// to the REPL until the user exits or stdin is closed.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to FieldOps CLI (type 'help' for commands)")

	_ = a.Login(ctx)

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
