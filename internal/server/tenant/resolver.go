package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/peeksync/internal/common"
	"github.com/dmitrijs2005/peeksync/internal/logging"
	"github.com/dmitrijs2005/peeksync/internal/server/models"
	"github.com/dmitrijs2005/peeksync/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/peeksync/internal/timex"
)

// Resolver turns a request's profile identifier into a profile UUID.
type Resolver struct {
	profiles profiles.Repository
	log      logging.Logger
	now      func() int64
}

func NewResolver(profiles profiles.Repository, log logging.Logger) *Resolver {
	return &Resolver{profiles: profiles, log: log, now: timex.NowMillis}
}

// ResolveProfileID accepts a profile UUID or slug. An empty identifier means
// the default profile, and an unknown one falls back to it with a warning.
func (r *Resolver) ResolveProfileID(ctx context.Context, userID, identifier string) (string, error) {
	if identifier == "" {
		identifier = models.DefaultProfileSlug
	}

	var (
		p   *models.Profile
		err error
	)
	if isUUID(identifier) {
		p, err = r.profiles.GetByID(ctx, userID, identifier)
	} else {
		p, err = r.profiles.GetBySlug(ctx, userID, identifier)
	}

	switch {
	case err == nil:
	case errors.Is(err, common.ErrorNotFound):
		if identifier != models.DefaultProfileSlug {
			r.log.Warn(ctx, "unknown profile, using default", "user_id", userID, "profile", identifier)
		}
		if p, err = r.EnsureDefaultProfile(ctx, userID); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("resolve profile: %w", err)
	}

	if err := r.profiles.Touch(ctx, p.ID, r.now()); err != nil {
		r.log.Warn(ctx, "profile touch failed", "profile_id", p.ID, "error", err)
	}
	return p.ID, nil
}

// EnsureDefaultProfile returns the user's default profile, creating it when
// absent.
func (r *Resolver) EnsureDefaultProfile(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := r.profiles.GetBySlug(ctx, userID, models.DefaultProfileSlug)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("default profile: %w", err)
	}

	now := r.now()
	p, err = r.profiles.Create(ctx, &models.Profile{
		UserID:     userID,
		Slug:       models.DefaultProfileSlug,
		Name:       "Default",
		CreatedAt:  now,
		LastUsedAt: now,
		IsDefault:  true,
	})
	if errors.Is(err, common.ErrorAlreadyExists) {
		// created concurrently
		return r.profiles.GetBySlug(ctx, userID, models.DefaultProfileSlug)
	}
	if err != nil {
		return nil, fmt.Errorf("create default profile: %w", err)
	}
	r.log.Info(ctx, "default profile created", "user_id", userID, "profile_id", p.ID)
	return p, nil
}
