package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/credgate/internal/model"
	"github.com/edvin/credgate/internal/platform"
)

// UserService manages users against the store database.
type UserService struct {
	db DB
}

// NewUserService creates a new UserService.
func NewUserService(db DB) *UserService {
	return &UserService{db: db}
}

// Create inserts a new user under a tenant.
func (s *UserService) Create(ctx context.Context, tenantID, email, displayName string) (*model.User, error) {
	u := &model.User{
		ID:          platform.NewID(),
		TenantID:    tenantID,
		Email:       email,
		DisplayName: displayName,
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (id, tenant_id, email, display_name, created_at) VALUES ($1, $2, $3, $4, now())
		 RETURNING created_at`,
		u.ID, u.TenantID, u.Email, u.DisplayName,
	).Scan(&u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, email, display_name, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.TenantID, &u.Email, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &u, nil
}
