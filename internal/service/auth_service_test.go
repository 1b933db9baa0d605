package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"

	"github.com/cqms-io/support-center/internal/auth"
	"github.com/cqms-io/support-center/internal/config"
	"github.com/cqms-io/support-center/internal/domain"
	"github.com/cqms-io/support-center/internal/service/mocks"
	apperrors "github.com/cqms-io/support-center/pkg/util"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 15,
		BcryptCost:            4,
	}
}

func customerAccount(t *testing.T, password string) *domain.Account {
	t.Helper()
	hash, err := auth.HashPassword(password, 4)
	assert.NoError(t, err)
	return &domain.Account{
		ID:           10,
		Email:        "jane@acme.test",
		Name:         "Jane",
		PasswordHash: hash,
		Role:         domain.RoleCustomer,
		Status:       domain.AccountStatusActive,
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials return token", func(t *testing.T) {
		account := customerAccount(t, "s3cret")
		mockRepo := &mocks.MockAccountRepository{
			GetByEmailFunc: func(ctx context.Context, email string) (*domain.Account, error) {
				assert.Equal(t, "jane@acme.test", email)
				return account, nil
			},
		}
		svc := NewAuthService(testAuthConfig(), mockRepo)

		got, token, exp, err := svc.Login(ctx, "  Jane@Acme.TEST ", "s3cret", domain.RoleCustomer)

		assert.NoError(t, err)
		assert.Equal(t, account.ID, got.ID)
		assert.NotEmpty(t, token)
		assert.True(t, exp.After(time.Now()))

		claims, err := svc.TokenManager().ParseToken(token)
		assert.NoError(t, err)
		assert.Equal(t, account.ID, claims.AccountID)
		assert.Equal(t, domain.RoleCustomer, claims.Role)
	})

	t.Run("unknown email", func(t *testing.T) {
		mockRepo := &mocks.MockAccountRepository{
			GetByEmailFunc: func(ctx context.Context, email string) (*domain.Account, error) {
				return nil, pgx.ErrNoRows
			},
		}
		svc := NewAuthService(testAuthConfig(), mockRepo)

		_, _, _, err := svc.Login(ctx, "nobody@acme.test", "s3cret", domain.RoleCustomer)

		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidCredentials))
	})

	t.Run("wrong password", func(t *testing.T) {
		account := customerAccount(t, "s3cret")
		mockRepo := &mocks.MockAccountRepository{
			GetByEmailFunc: func(ctx context.Context, email string) (*domain.Account, error) {
				return account, nil
			},
		}
		svc := NewAuthService(testAuthConfig(), mockRepo)

		_, _, _, err := svc.Login(ctx, "jane@acme.test", "wrong", domain.RoleCustomer)

		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidCredentials))
	})

	t.Run("role mismatch", func(t *testing.T) {
		account := customerAccount(t, "s3cret")
		mockRepo := &mocks.MockAccountRepository{
			GetByEmailFunc: func(ctx context.Context, email string) (*domain.Account, error) {
				return account, nil
			},
		}
		svc := NewAuthService(testAuthConfig(), mockRepo)

		_, _, _, err := svc.Login(ctx, "jane@acme.test", "s3cret", domain.RoleSupport)

		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidCredentials))
	})

	t.Run("inactive account", func(t *testing.T) {
		account := customerAccount(t, "s3cret")
		account.Status = domain.AccountStatusInactive
		mockRepo := &mocks.MockAccountRepository{
			GetByEmailFunc: func(ctx context.Context, email string) (*domain.Account, error) {
				return account, nil
			},
		}
		svc := NewAuthService(testAuthConfig(), mockRepo)

		_, _, _, err := svc.Login(ctx, "jane@acme.test", "s3cret", domain.RoleCustomer)

		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidCredentials))
	})

	// The three rejection shapes above must be indistinguishable.
	t.Run("failures carry identical messages", func(t *testing.T) {
		account := customerAccount(t, "s3cret")
		byEmail := func(a *domain.Account, missing bool) *mocks.MockAccountRepository {
			return &mocks.MockAccountRepository{
				GetByEmailFunc: func(ctx context.Context, email string) (*domain.Account, error) {
					if missing {
						return nil, pgx.ErrNoRows
					}
					return a, nil
				},
			}
		}

		svc := NewAuthService(testAuthConfig(), byEmail(nil, true))
		_, _, _, errUnknown := svc.Login(ctx, "x@x.test", "s3cret", domain.RoleCustomer)

		svc = NewAuthService(testAuthConfig(), byEmail(account, false))
		_, _, _, errWrongPass := svc.Login(ctx, "jane@acme.test", "wrong", domain.RoleCustomer)

		svc = NewAuthService(testAuthConfig(), byEmail(account, false))
		_, _, _, errWrongRole := svc.Login(ctx, "jane@acme.test", "s3cret", domain.RoleSupport)

		assert.Equal(t, errUnknown.Error(), errWrongPass.Error())
		assert.Equal(t, errWrongPass.Error(), errWrongRole.Error())
	})

	t.Run("unknown role rejected up front", func(t *testing.T) {
		svc := NewAuthService(testAuthConfig(), &mocks.MockAccountRepository{})

		_, _, _, err := svc.Login(ctx, "jane@acme.test", "s3cret", domain.Role("ADMIN"))

		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
	})
}

func TestRegisterCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("creates account and profile", func(t *testing.T) {
		var savedAccount *domain.Account
		var savedProfile *domain.CustomerProfile
		mockRepo := &mocks.MockAccountRepository{
			GetByEmailFunc: func(ctx context.Context, email string) (*domain.Account, error) {
				return nil, pgx.ErrNoRows
			},
			CreateCustomerFunc: func(ctx context.Context, account *domain.Account, profile *domain.CustomerProfile) error {
				account.ID = 11
				profile.CustomerID = 5
				profile.AccountID = account.ID
				savedAccount = account
				savedProfile = profile
				return nil
			},
		}
		svc := NewAuthService(testAuthConfig(), mockRepo)

		account, profile, token, _, err := svc.RegisterCustomer(ctx, "Jane", "Jane@Acme.TEST", "s3cret", "Acme Corp")

		assert.NoError(t, err)
		assert.Equal(t, "jane@acme.test", savedAccount.Email)
		assert.Equal(t, domain.RoleCustomer, savedAccount.Role)
		assert.Equal(t, domain.AccountStatusActive, savedAccount.Status)
		assert.NoError(t, auth.ComparePassword(savedAccount.PasswordHash, "s3cret"))
		assert.Equal(t, "Acme Corp", savedProfile.CompanyName)
		assert.Equal(t, int64(11), account.ID)
		assert.Equal(t, int64(5), profile.CustomerID)
		assert.NotEmpty(t, token)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		mockRepo := &mocks.MockAccountRepository{
			GetByEmailFunc: func(ctx context.Context, email string) (*domain.Account, error) {
				return &domain.Account{ID: 1, Email: email}, nil
			},
		}
		svc := NewAuthService(testAuthConfig(), mockRepo)

		_, _, _, _, err := svc.RegisterCustomer(ctx, "Jane", "jane@acme.test", "s3cret", "")

		assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		svc := NewAuthService(testAuthConfig(), &mocks.MockAccountRepository{})

		_, _, _, _, err := svc.RegisterCustomer(ctx, "", "jane@acme.test", "s3cret", "")

		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces hash after verifying current password", func(t *testing.T) {
		account := customerAccount(t, "old-pass")
		var newHash string
		mockRepo := &mocks.MockAccountRepository{
			GetByIDFunc: func(ctx context.Context, id int64) (*domain.Account, error) {
				return account, nil
			},
			UpdatePasswordFunc: func(ctx context.Context, id int64, passwordHash string) error {
				newHash = passwordHash
				return nil
			},
		}
		svc := NewAuthService(testAuthConfig(), mockRepo)

		err := svc.ChangePassword(ctx, account.ID, "old-pass", "new-pass")

		assert.NoError(t, err)
		assert.NoError(t, auth.ComparePassword(newHash, "new-pass"))
	})

	t.Run("wrong current password", func(t *testing.T) {
		account := customerAccount(t, "old-pass")
		mockRepo := &mocks.MockAccountRepository{
			GetByIDFunc: func(ctx context.Context, id int64) (*domain.Account, error) {
				return account, nil
			},
		}
		svc := NewAuthService(testAuthConfig(), mockRepo)

		err := svc.ChangePassword(ctx, account.ID, "guess", "new-pass")

		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidCredentials))
	})
}
