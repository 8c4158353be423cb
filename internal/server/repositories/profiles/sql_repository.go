package profiles

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

type queries struct {
	create     string
	getByID    string
	getBySlug  string
	listByUser string
	touch      string
}

// SQLRepository implements Repository over database/sql.
type SQLRepository struct {
	db dbx.DBTX
	q  queries
}

var _ Repository = (*SQLRepository)(nil)

func (r *SQLRepository) Create(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, r.q.create,
		p.ID, p.UserID, p.Slug, p.Name, p.CreatedAt, p.LastUsedAt, p.IsDefault)
	if err != nil {
		if repositories.IsUniqueViolation(err) {
			return nil, fmt.Errorf("profile %q: %w", p.Slug, common.ErrorAlreadyExists)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, userID, id string) (*models.Profile, error) {
	return r.getOne(ctx, r.q.getByID, userID, id)
}

func (r *SQLRepository) GetBySlug(ctx context.Context, userID, slug string) (*models.Profile, error) {
	return r.getOne(ctx, r.q.getBySlug, userID, slug)
}

func (r *SQLRepository) getOne(ctx context.Context, query string, args ...any) (*models.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *SQLRepository) ListByUser(ctx context.Context, userID string) ([]*models.Profile, error) {
	rows, err := r.db.QueryContext(ctx, r.q.listByUser, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) Touch(ctx context.Context, id string, ts int64) error {
	res, err := r.db.ExecContext(ctx, r.q.touch, ts, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ok, err := dbx.Changed(res)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(s scanner) (*models.Profile, error) {
	p := &models.Profile{}
	err := s.Scan(&p.ID, &p.UserID, &p.Slug, &p.Name, &p.CreatedAt, &p.LastUsedAt, &p.IsDefault)
	if err != nil {
		return nil, err
	}
	return p, nil
}
