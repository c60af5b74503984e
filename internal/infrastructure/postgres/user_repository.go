package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/brightlens/brokerportal/internal/domain/entity"
	"github.com/brightlens/brokerportal/internal/domain/repository"
)

var errNotFound = errors.New("not found")

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name, phone, is_verified)
		VALUES ($1, $2, $3, $4, $5, FALSE)
		RETURNING id, is_verified, created_at, updated_at
	`, u.Email, u.Password, u.FirstName, u.LastName, u.Phone)

	return row.Scan(&u.ID, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.get(ctx, `
		SELECT id, email, password_hash, first_name, last_name, phone, is_verified, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.get(ctx, `
		SELECT id, email, password_hash, first_name, last_name, phone, is_verified, created_at, updated_at
		FROM users
		WHERE lower(email) = lower($1)
	`, email)
}

func (r *UserRepository) get(ctx context.Context, q string, arg any) (*entity.User, error) {
	u := &entity.User{}
	row := r.db.QueryRow(ctx, q, arg)
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName, &u.Phone,
		&u.IsVerified, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) SetVerified(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx, `
		UPDATE users
		SET is_verified = TRUE, updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

var _ repository.UserRepository = (*UserRepository)(nil)
