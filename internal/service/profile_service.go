package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/cqms-io/support-center/internal/domain"
	"github.com/cqms-io/support-center/internal/repository"
	apperrors "github.com/cqms-io/support-center/pkg/util"
)

// ProfileService exposes customer profile reads and owner-scoped updates.
type ProfileService struct {
	profiles repository.ProfileRepository
}

// NewProfileService constructs the service.
func NewProfileService(profiles repository.ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// GetProfile fetches a customer's profile.
func (s *ProfileService) GetProfile(ctx context.Context, customerID int64) (*domain.CustomerProfile, error) {
	profile, err := s.profiles.GetByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("profile", nil)
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return profile, nil
}

// UpdateContact updates phone and address. Only the owning customer may
// invoke it, so the caller identity must equal the target customer id.
func (s *ProfileService) UpdateContact(ctx context.Context, actorCustomerID, customerID int64, phone, address string) (*domain.CustomerProfile, error) {
	if actorCustomerID != customerID {
		return nil, apperrors.NewForbidden("profile belongs to another customer")
	}

	phone = strings.TrimSpace(phone)
	address = strings.TrimSpace(address)
	if err := s.profiles.UpdateContact(ctx, customerID, phone, address); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("profile", nil)
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return s.GetProfile(ctx, customerID)
}
