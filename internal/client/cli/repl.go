package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	ClockIn(ctx context.Context, args []string) error
	ClockOut(ctx context.Context, args []string) error
	TrackLocation(ctx context.Context, args []string) error
	CapturePhoto(ctx context.Context, args []string) error
	SubmitReport(ctx context.Context) error
	Sync(ctx context.Context) error
	SyncStatus(ctx context.Context) error
	Retry(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the FieldOps CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help                        — show available commands
//	  - login                       — authenticate with badge number and PIN
//	  - exit | quit                 — leave the program
//
//	Logged in:
//	  - clockin <lat> <lon> [note]  — record start of shift
//	  - clockout <lat> <lon> [note] — record end of shift
//	  - loc <lat> <lon> [accuracy]  — record a location fix
//	  - photo <path> [note]         — capture a photo from a local file
//	  - report                      — file an activity report (interactive)
//	  - sync                        — run a sync pass now
//	  - status                      — pending and dead item counts
//	  - retry                       — revive dead items
//	  - logout                      — log out and wipe cached credentials
//	  - exit | quit                 — leave the program
//
// Any errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("fops %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: clockin, clockout, loc, photo, report, sync, status, retry, logout, exit")
			} else {
				printlnFn("Available commands: login, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "clockin":
			if requireLogin(a) {
				_ = a.ClockIn(ctx, args)
			}

		case "clockout":
			if requireLogin(a) {
				_ = a.ClockOut(ctx, args)
			}

		case "loc":
			if requireLogin(a) {
				_ = a.TrackLocation(ctx, args)
			}

		case "photo":
			if requireLogin(a) {
				_ = a.CapturePhoto(ctx, args)
			}

		case "report":
			if requireLogin(a) {
				_ = a.SubmitReport(ctx)
			}

		case "sync":
			if requireLogin(a) {
				_ = a.Sync(ctx)
			}

		case "status":
			if requireLogin(a) {
				_ = a.SyncStatus(ctx)
			}

		case "retry":
			if requireLogin(a) {
				_ = a.Retry(ctx)
			}

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func requireLogin(a execIface) bool {
	if !a.isLoggedIn() {
		printlnFn("Please login first")
		return false
	}
	return true
}
