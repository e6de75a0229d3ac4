// Package cli provides the interactive FieldOps command-line client.
//
// It wires configuration, local storage, the backend API client, the
// connectivity monitor and the sync orchestrator into an interactive REPL
// that works with or without network coverage. Typical flow: prompt for
// badge number and PIN, start the background connectivity probe and the
// periodic sync, and execute user commands.
//
// Key features:
//   - Login / Logout (online with offline fallback)
//   - Capture: clock-in/out, location fixes, photos, activity reports
//   - Sync on demand, queue status, dead-item retry
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, runREPL, and Orchestrator.WatchConnectivity for details.
package cli
