package repository

import (
	"context"

	"storefront/internal/domain"
)

// UserRepository stores login records. FindByUsername matches usernames
// case-insensitively and returns nil, nil when the user does not exist.
type UserRepository interface {
	Save(ctx context.Context, u *domain.User) error
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdatePasswordHash(ctx context.Context, id uint64, hash string) error
	Count(ctx context.Context) (int64, error)
}
