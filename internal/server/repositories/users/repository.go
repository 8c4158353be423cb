// Package users stores server accounts and their API key hashes.
package users

import (
	"context"

	"github.com/dmitrijs2005/peeksync/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByName(ctx context.Context, name string) (*models.User, error)
	GetByAPIKeyHash(ctx context.Context, hash string) (*models.User, error)
	AddAPIKey(ctx context.Context, userID, hash string, ts int64) (*models.APIKey, error)
}
