package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cqms-io/support-center/internal/domain"
)

// ProfileRepository encapsulates customer profile persistence.
type ProfileRepository interface {
	GetByCustomerID(ctx context.Context, customerID int64) (*domain.CustomerProfile, error)
	GetByAccountID(ctx context.Context, accountID int64) (*domain.CustomerProfile, error)
	UpdateContact(ctx context.Context, customerID int64, phone, address string) error
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository instantiates repository.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

func (r *profileRepository) GetByCustomerID(ctx context.Context, customerID int64) (*domain.CustomerProfile, error) {
	const query = `
        SELECT customer_id, account_id, company_name, phone, address, created_at, updated_at
        FROM customer_profile WHERE customer_id=$1`
	return r.fetchSingle(ctx, query, customerID)
}

func (r *profileRepository) GetByAccountID(ctx context.Context, accountID int64) (*domain.CustomerProfile, error) {
	const query = `
        SELECT customer_id, account_id, company_name, phone, address, created_at, updated_at
        FROM customer_profile WHERE account_id=$1`
	return r.fetchSingle(ctx, query, accountID)
}

func (r *profileRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.CustomerProfile, error) {
	var profile domain.CustomerProfile
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&profile.CustomerID,
		&profile.AccountID,
		&profile.CompanyName,
		&profile.Phone,
		&profile.Address,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) UpdateContact(ctx context.Context, customerID int64, phone, address string) error {
	const query = `
        UPDATE customer_profile SET phone=$1, address=$2, updated_at=NOW()
        WHERE customer_id=$3`
	cmd, err := r.pool.Exec(ctx, query, phone, address, customerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
