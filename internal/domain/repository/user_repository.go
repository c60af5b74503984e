package repository

import (
	"context"

	"github.com/brightlens/brokerportal/internal/domain/entity"
)

// UserRepository defines the interface for account persistence.
// Lookups return (nil, nil) when no row matches.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	SetVerified(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
