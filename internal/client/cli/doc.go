// Package cli implements the peek command-line client on top of cobra.
//
// The root command opens the local store chosen by the persistent flags
// (relational SQLite file or object store) and closes it when the command
// finishes. Sync commands build an HTTP client from the sync settings kept
// in that store.
package cli
