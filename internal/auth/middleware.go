package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/cqms-io/support-center/internal/domain"
	"github.com/cqms-io/support-center/internal/repository"
	apperrors "github.com/cqms-io/support-center/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller. Profile is populated for
// customers only; handlers pass its CustomerID explicitly into service calls.
type Principal struct {
	Account *domain.Account
	Profile *domain.CustomerProfile
}

// Role returns the authenticated role.
func (p *Principal) Role() domain.Role {
	return p.Account.Role
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens   *TokenManager
	accounts repository.AccountRepository
	profiles repository.ProfileRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, accounts repository.AccountRepository, profiles repository.ProfileRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, accounts: accounts, profiles: profiles}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	account, err := m.accounts.GetByID(c.Context(), claims.AccountID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewUnauthorized("account not found")
		}
		return apperrors.NewStoreUnavailable(err)
	}
	if account.Status != domain.AccountStatusActive {
		return apperrors.NewUnauthorized("account inactive")
	}
	// Role is immutable per session: the claim must still match the store.
	if account.Role != claims.Role {
		return apperrors.NewUnauthorized("role mismatch")
	}

	principal := &Principal{Account: account}
	if account.Role == domain.RoleCustomer {
		profile, err := m.profiles.GetByAccountID(c.Context(), account.ID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return apperrors.NewUnauthorized("customer profile missing")
			}
			return apperrors.NewStoreUnavailable(err)
		}
		principal.Profile = profile
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
