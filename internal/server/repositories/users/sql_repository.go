package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/peeksync/internal/common"
	"github.com/dmitrijs2005/peeksync/internal/dbx"
	"github.com/dmitrijs2005/peeksync/internal/server/models"
	"github.com/dmitrijs2005/peeksync/internal/server/repositories"
	"github.com/google/uuid"
)

// queries holds the dialect-specific statements.
type queries struct {
	create          string
	getByID         string
	getByName       string
	getByAPIKeyHash string
	addAPIKey       string
}

// SQLRepository implements Repository over database/sql. The dialect only
// changes the statement text.
type SQLRepository struct {
	db dbx.DBTX
	q  queries
}

var _ Repository = (*SQLRepository)(nil)

func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, r.q.create, user.ID, user.Name, user.CreatedAt)
	if err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, fmt.Errorf("user %q: %w", user.Name, common.ErrorAlreadyExists)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, r.q.getByID, id)
}

func (r *SQLRepository) GetByName(ctx context.Context, name string) (*models.User, error) {
	return r.getOne(ctx, r.q.getByName, name)
}

func (r *SQLRepository) GetByAPIKeyHash(ctx context.Context, hash string) (*models.User, error) {
	return r.getOne(ctx, r.q.getByAPIKeyHash, hash)
}

func (r *SQLRepository) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Name, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *SQLRepository) AddAPIKey(ctx context.Context, userID, hash string, ts int64) (*models.APIKey, error) {
	key := &models.APIKey{ID: uuid.NewString(), UserID: userID, KeyHash: hash, CreatedAt: ts}

	_, err := r.db.ExecContext(ctx, r.q.addAPIKey, key.ID, key.UserID, key.KeyHash, key.CreatedAt)
	if err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, fmt.Errorf("api key: %w", common.ErrorAlreadyExists)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return key, nil
}
