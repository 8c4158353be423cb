// Package services contains server-side business logic: API key
// authentication and account management over the system database, and item
// operations over a tenant datastore.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/peeksync/internal/common"
	"github.com/dmitrijs2005/peeksync/internal/cryptox"
	"github.com/dmitrijs2005/peeksync/internal/dbx"
	"github.com/dmitrijs2005/peeksync/internal/server/models"
	"github.com/dmitrijs2005/peeksync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/peeksync/internal/server/tenant"
	"github.com/dmitrijs2005/peeksync/internal/timex"
)

// AuthService resolves bearer tokens to users and manages accounts, their
// API keys and profiles.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	secret      string
	now         func() int64
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, secret string) *AuthService {
	return &AuthService{db: db, repomanager: m, secret: secret, now: timex.NowMillis}
}

// Authenticate returns the id of the user owning token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", common.ErrorUnauthorized
	}

	u, err := s.repomanager.Users(s.db).GetByAPIKeyHash(ctx, cryptox.HashAPIKey(s.secret, token))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", fmt.Errorf("authenticate: %w", err)
	}
	return u.ID, nil
}

// CreateUser registers a user together with a first API key and the
// default profile. The raw key is returned once and never stored.
func (s *AuthService) CreateUser(ctx context.Context, name string) (*models.User, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", fmt.Errorf("user name is empty: %w", common.ErrorValidation)
	}

	key, err := cryptox.GenerateAPIKey()
	if err != nil {
		return nil, "", err
	}

	var user *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		now := s.now()
		u, err := s.repomanager.Users(tx).Create(ctx, &models.User{Name: name, CreatedAt: now})
		if err != nil {
			return err
		}
		if _, err := s.repomanager.Users(tx).AddAPIKey(ctx, u.ID, cryptox.HashAPIKey(s.secret, key), now); err != nil {
			return err
		}
		_, err = s.repomanager.Profiles(tx).Create(ctx, &models.Profile{
			UserID:     u.ID,
			Slug:       models.DefaultProfileSlug,
			Name:       "Default",
			CreatedAt:  now,
			LastUsedAt: now,
			IsDefault:  true,
		})
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return user, key, nil
}

// IssueAPIKey adds another key to an existing user.
func (s *AuthService) IssueAPIKey(ctx context.Context, userID string) (string, error) {
	if _, err := s.repomanager.Users(s.db).GetByID(ctx, userID); err != nil {
		return "", err
	}
	key, err := cryptox.GenerateAPIKey()
	if err != nil {
		return "", err
	}
	if _, err := s.repomanager.Users(s.db).AddAPIKey(ctx, userID, cryptox.HashAPIKey(s.secret, key), s.now()); err != nil {
		return "", err
	}
	return key, nil
}

// ListProfiles returns the profiles of userID, default first.
func (s *AuthService) ListProfiles(ctx context.Context, userID string) ([]*models.Profile, error) {
	return s.repomanager.Profiles(s.db).ListByUser(ctx, userID)
}

// AddProfile creates a profile named name with a slug derived from it.
func (s *AuthService) AddProfile(ctx context.Context, userID, name string) (*models.Profile, error) {
	slug := tenant.Slugify(strings.TrimSpace(name))
	if slug == "" {
		return nil, fmt.Errorf("profile name %q has no usable characters: %w", name, common.ErrorValidation)
	}
	if _, err := s.repomanager.Users(s.db).GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.repomanager.Profiles(s.db).Create(ctx, &models.Profile{
		UserID:    userID,
		Slug:      slug,
		Name:      strings.TrimSpace(name),
		CreatedAt: s.now(),
	})
}
