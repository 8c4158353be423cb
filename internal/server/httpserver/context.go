package httpserver

import (
	"context"
	"database/sql"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	profileIDKey
	tenantDBKey
)

func withUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID returns the authenticated user of the request, if any.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func withTenant(ctx context.Context, profileID string, db *sql.DB) context.Context {
	ctx = context.WithValue(ctx, profileIDKey, profileID)
	return context.WithValue(ctx, tenantDBKey, db)
}

// ProfileID returns the resolved profile UUID of the request, if any.
func ProfileID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(profileIDKey).(string)
	return id, ok
}

func tenantDB(ctx context.Context) (*sql.DB, bool) {
	db, ok := ctx.Value(tenantDBKey).(*sql.DB)
	return db, ok && db != nil
}
