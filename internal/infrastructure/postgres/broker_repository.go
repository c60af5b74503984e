package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/brightlens/brokerportal/internal/domain/entity"
	"github.com/brightlens/brokerportal/internal/domain/repository"
)

type BrokerRepository struct {
	db DB
}

func NewBrokerRepository(db DB) *BrokerRepository {
	return &BrokerRepository{db: db}
}

func (r *BrokerRepository) Create(ctx context.Context, b *entity.Broker) error {
	if b.VerificationStatus == "" {
		b.VerificationStatus = entity.BrokerStatusPending
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO brokers (user_id, company_name, broker_license, license_state, verification_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, b.UserID, b.CompanyName, b.BrokerLicense, b.LicenseState, b.VerificationStatus)

	return row.Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *BrokerRepository) GetByUserID(ctx context.Context, userID string) (*entity.Broker, error) {
	return r.get(ctx, `
		SELECT id, user_id, company_name, broker_license, license_state, verification_status, created_at, updated_at
		FROM brokers
		WHERE user_id = $1
	`, userID)
}

func (r *BrokerRepository) GetByLicense(ctx context.Context, license string) (*entity.Broker, error) {
	return r.get(ctx, `
		SELECT id, user_id, company_name, broker_license, license_state, verification_status, created_at, updated_at
		FROM brokers
		WHERE broker_license = $1
	`, license)
}

func (r *BrokerRepository) get(ctx context.Context, q string, arg any) (*entity.Broker, error) {
	b := &entity.Broker{}
	row := r.db.QueryRow(ctx, q, arg)
	if err := row.Scan(&b.ID, &b.UserID, &b.CompanyName, &b.BrokerLicense, &b.LicenseState,
		&b.VerificationStatus, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

var _ repository.BrokerRepository = (*BrokerRepository)(nil)
