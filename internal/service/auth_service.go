package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cqms-io/support-center/internal/auth"
	"github.com/cqms-io/support-center/internal/config"
	"github.com/cqms-io/support-center/internal/domain"
	"github.com/cqms-io/support-center/internal/repository"
	apperrors "github.com/cqms-io/support-center/pkg/util"
)

// AuthService coordinates registration and login flows against the account
// directory.
type AuthService struct {
	accounts   repository.AccountRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, accounts repository.AccountRepository) *AuthService {
	return &AuthService{
		accounts:   accounts,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
	}
}

// RegisterCustomer creates a customer account and its profile in one
// transaction, returning a session token.
func (s *AuthService) RegisterCustomer(ctx context.Context, name, email, password, companyName string) (*domain.Account, *domain.CustomerProfile, string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(name) == "" || password == "" {
		return nil, nil, "", time.Time{}, apperrors.NewValidationError("name, email, password required", nil)
	}

	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil, nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, "", time.Time{}, apperrors.NewStoreUnavailable(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	account := &domain.Account{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		Role:         domain.RoleCustomer,
		Status:       domain.AccountStatusActive,
	}
	profile := &domain.CustomerProfile{
		CompanyName: strings.TrimSpace(companyName),
	}
	if err := s.accounts.CreateCustomer(ctx, account, profile); err != nil {
		return nil, nil, "", time.Time{}, apperrors.NewStoreUnavailable(err)
	}

	token, exp, err := s.tokenMgr.GenerateToken(account.ID, account.Role)
	if err != nil {
		return nil, nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return account, profile, token, exp, nil
}

// Login authenticates an identity against its claimed role. Unknown identity,
// wrong password, role mismatch and inactive account are indistinguishable to
// the caller.
func (s *AuthService) Login(ctx context.Context, email, password string, claimedRole domain.Role) (*domain.Account, string, time.Time, error) {
	if !domain.ValidRole(claimedRole) {
		return nil, "", time.Time{}, apperrors.NewValidationError("unknown role", map[string]any{"role": claimedRole})
	}

	account, err := s.accounts.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewInvalidCredentials()
		}
		return nil, "", time.Time{}, apperrors.NewStoreUnavailable(err)
	}
	if account.Role != claimedRole || account.Status != domain.AccountStatusActive {
		return nil, "", time.Time{}, apperrors.NewInvalidCredentials()
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewInvalidCredentials()
	}

	token, exp, err := s.tokenMgr.GenerateToken(account.ID, account.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return account, token, exp, nil
}

// ChangePassword verifies the current password before updating to a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, accountID int64, currentPassword, newPassword string) error {
	if newPassword == "" {
		return apperrors.NewValidationError("new password required", nil)
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("account", nil)
		}
		return apperrors.NewStoreUnavailable(err)
	}
	if err := auth.ComparePassword(account.PasswordHash, currentPassword); err != nil {
		return apperrors.NewInvalidCredentials()
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.accounts.UpdatePassword(ctx, accountID, hash); err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
