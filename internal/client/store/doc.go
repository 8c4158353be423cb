// Package store defines the local Item/Tag store contract that every client
// replica implements, plus helpers shared by the implementations.
//
// # Overview
//
// Two backends satisfy Store:
//
//   - store/sqlite: a relational store over database/sql with goose
//     migrations (desktop replica).
//   - store/objectstore: a document store over named collections, backed by
//     memory or Redis (extension-style replica).
//
// The sync engine depends only on these interfaces. Both backends run the
// same behavioural suite in store/storetest, so sync semantics do not depend
// on the persistence technology.
//
// # Errors
//
// Lookups of missing or soft-deleted rows return common.ErrorNotFound.
// Invalid input (blank tag names, non-object metadata) returns an error
// wrapping common.ErrorValidation.
package store
