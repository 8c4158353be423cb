// Package models holds the client-side data model: items, tags, their links,
// and the sync configuration and result types.
package models
