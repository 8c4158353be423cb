// Package profiles stores the tenant profiles of each user. A profile names
// one isolated datastore on disk by its UUID.
package profiles

import (
	"context"

	"github.com/dmitrijs2005/peeksync/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.Profile) (*models.Profile, error)
	GetByID(ctx context.Context, userID, id string) (*models.Profile, error)
	GetBySlug(ctx context.Context, userID, slug string) (*models.Profile, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Profile, error)
	Touch(ctx context.Context, id string, ts int64) error
}
