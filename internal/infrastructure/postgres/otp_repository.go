package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/brightlens/brokerportal/internal/domain/entity"
	"github.com/brightlens/brokerportal/internal/domain/repository"
)

type OTPRepository struct {
	db DB
}

func NewOTPRepository(db DB) *OTPRepository {
	return &OTPRepository{db: db}
}

func (r *OTPRepository) Create(ctx context.Context, o *entity.OTPRecord) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO otp_verifications (user_id, code, type, expires_at, attempts, verified)
		VALUES ($1, $2, $3, $4, 0, FALSE)
		RETURNING id, created_at
	`, o.UserID, o.Code, o.Channel, o.ExpiresAt)

	return row.Scan(&o.ID, &o.CreatedAt)
}

func (r *OTPRepository) GetLatestUnverified(ctx context.Context, userID string) (*entity.OTPRecord, error) {
	o := &entity.OTPRecord{}
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, code, type, expires_at, attempts, verified, created_at
		FROM otp_verifications
		WHERE user_id = $1 AND verified = FALSE
		ORDER BY created_at DESC
		LIMIT 1
	`, userID)
	if err := row.Scan(&o.ID, &o.UserID, &o.Code, &o.Channel, &o.ExpiresAt,
		&o.Attempts, &o.Verified, &o.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}

// IncrementAttempts is a compare-and-set: the row must still hold the
// attempts value the caller read. A zero-row update means another
// request raced us and already consumed that attempt.
func (r *OTPRepository) IncrementAttempts(ctx context.Context, id string, expected int) (int, bool, error) {
	var attempts int
	row := r.db.QueryRow(ctx, `
		UPDATE otp_verifications
		SET attempts = attempts + 1
		WHERE id = $1 AND attempts = $2 AND verified = FALSE
		RETURNING attempts
	`, id, expected)
	if err := row.Scan(&attempts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return attempts, true, nil
}

func (r *OTPRepository) MarkVerified(ctx context.Context, id string, maxAttempts int) (bool, error) {
	res, err := r.db.Exec(ctx, `
		UPDATE otp_verifications
		SET verified = TRUE
		WHERE id = $1 AND verified = FALSE AND attempts < $2
	`, id, maxAttempts)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() == 1, nil
}

var _ repository.OTPRepository = (*OTPRepository)(nil)
