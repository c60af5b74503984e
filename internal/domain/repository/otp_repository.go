package repository

import (
	"context"

	"github.com/brightlens/brokerportal/internal/domain/entity"
)

// OTPRepository defines the interface for verification code persistence.
//
// IncrementAttempts and MarkVerified are conditional updates: they only
// apply when the row still holds the state the caller read, so two
// requests racing on the same record cannot double-spend the attempt
// budget or both consume the code.
type OTPRepository interface {
	Create(ctx context.Context, o *entity.OTPRecord) error
	// GetLatestUnverified returns the most recently created unverified
	// record for the user, or (nil, nil) when none exists.
	GetLatestUnverified(ctx context.Context, userID string) (*entity.OTPRecord, error)
	// IncrementAttempts bumps the attempts counter from expected to
	// expected+1 and returns the stored value. ok is false when the row
	// changed under the caller (lost race or already verified).
	IncrementAttempts(ctx context.Context, id string, expected int) (attempts int, ok bool, err error)
	// MarkVerified flips verified to true if the record is still
	// unverified with attempts below max. ok is false otherwise.
	MarkVerified(ctx context.Context, id string, maxAttempts int) (ok bool, err error)
}
