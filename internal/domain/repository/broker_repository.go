package repository

import (
	"context"

	"github.com/brightlens/brokerportal/internal/domain/entity"
)

// BrokerRepository defines the interface for broker profile persistence.
type BrokerRepository interface {
	Create(ctx context.Context, b *entity.Broker) error
	GetByUserID(ctx context.Context, userID string) (*entity.Broker, error)
	GetByLicense(ctx context.Context, license string) (*entity.Broker, error)
}
