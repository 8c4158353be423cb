// Package common contains shared constants and sentinel errors used across
// peeksync components.
package common

// SyncSourceServer marks an item as originating from, or reconciled with,
// the sync server.
const SyncSourceServer = "server"

// SyncExtensionID is the settings namespace that holds sync configuration.
const SyncExtensionID = "sync"
