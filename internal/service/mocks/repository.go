package mocks

import (
	"context"
	"time"

	"github.com/cqms-io/support-center/internal/domain"
)

// MockTicketRepository implements repository.TicketRepository with
// overridable function fields.
type MockTicketRepository struct {
	CreateFunc              func(ctx context.Context, ticket *domain.Ticket) error
	GetByIDFunc             func(ctx context.Context, id int64) (*domain.Ticket, error)
	ListByCustomerFunc      func(ctx context.Context, customerID int64) ([]domain.Ticket, error)
	ListAllWithCustomerFunc func(ctx context.Context) ([]domain.TicketWithCustomer, error)
	UpdateStatusFunc        func(ctx context.Context, id int64, from, to domain.TicketStatus) (*time.Time, error)
	SetCommentFunc          func(ctx context.Context, id int64, comment string) error
	SetReviewFunc           func(ctx context.Context, id, customerID int64, text string, rating int) error
	ReopenFunc              func(ctx context.Context, id, customerID int64) error
}

func (m *MockTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	return m.CreateFunc(ctx, ticket)
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *MockTicketRepository) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Ticket, error) {
	return m.ListByCustomerFunc(ctx, customerID)
}

func (m *MockTicketRepository) ListAllWithCustomer(ctx context.Context) ([]domain.TicketWithCustomer, error) {
	return m.ListAllWithCustomerFunc(ctx)
}

func (m *MockTicketRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.TicketStatus) (*time.Time, error) {
	return m.UpdateStatusFunc(ctx, id, from, to)
}

func (m *MockTicketRepository) SetComment(ctx context.Context, id int64, comment string) error {
	return m.SetCommentFunc(ctx, id, comment)
}

func (m *MockTicketRepository) SetReview(ctx context.Context, id, customerID int64, text string, rating int) error {
	return m.SetReviewFunc(ctx, id, customerID, text, rating)
}

func (m *MockTicketRepository) Reopen(ctx context.Context, id, customerID int64) error {
	return m.ReopenFunc(ctx, id, customerID)
}

// MockAccountRepository implements repository.AccountRepository with
// overridable function fields.
type MockAccountRepository struct {
	GetByIDFunc        func(ctx context.Context, id int64) (*domain.Account, error)
	GetByEmailFunc     func(ctx context.Context, email string) (*domain.Account, error)
	CreateCustomerFunc func(ctx context.Context, account *domain.Account, profile *domain.CustomerProfile) error
	UpdatePasswordFunc func(ctx context.Context, id int64, passwordHash string) error
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return m.GetByEmailFunc(ctx, email)
}

func (m *MockAccountRepository) CreateCustomer(ctx context.Context, account *domain.Account, profile *domain.CustomerProfile) error {
	return m.CreateCustomerFunc(ctx, account, profile)
}

func (m *MockAccountRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return m.UpdatePasswordFunc(ctx, id, passwordHash)
}

// MockProfileRepository implements repository.ProfileRepository with
// overridable function fields.
type MockProfileRepository struct {
	GetByCustomerIDFunc func(ctx context.Context, customerID int64) (*domain.CustomerProfile, error)
	GetByAccountIDFunc  func(ctx context.Context, accountID int64) (*domain.CustomerProfile, error)
	UpdateContactFunc   func(ctx context.Context, customerID int64, phone, address string) error
}

func (m *MockProfileRepository) GetByCustomerID(ctx context.Context, customerID int64) (*domain.CustomerProfile, error) {
	return m.GetByCustomerIDFunc(ctx, customerID)
}

func (m *MockProfileRepository) GetByAccountID(ctx context.Context, accountID int64) (*domain.CustomerProfile, error) {
	return m.GetByAccountIDFunc(ctx, accountID)
}

func (m *MockProfileRepository) UpdateContact(ctx context.Context, customerID int64, phone, address string) error {
	return m.UpdateContactFunc(ctx, customerID, phone, address)
}
