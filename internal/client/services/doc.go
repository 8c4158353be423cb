// Package services contains the application services of the peek client.
//
// SyncService reconciles the local store with the server: Pull merges
// server items by last-write-wins on updatedAt, Push uploads items that were
// never synced or changed since their last sync, and SyncAll runs both in
// that order. Scheduler drives SyncAll periodically. ItemService backs the
// local item and tag commands of the CLI.
package services
