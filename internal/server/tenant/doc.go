// Package tenant maps an authenticated user and a requested profile onto an
// isolated SQLite datastore.
//
// Layout on disk:
//
//	<dataDir>/<userID>/profiles/<profileUUID>/datastore.sqlite
//
// Profiles are addressed by UUID on disk. Older deployments named the
// folders by slug; MigrateFolders renames those in place.
package tenant
