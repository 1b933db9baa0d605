package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"

	"github.com/cqms-io/support-center/internal/domain"
	"github.com/cqms-io/support-center/internal/events"
	"github.com/cqms-io/support-center/internal/service/mocks"
	apperrors "github.com/cqms-io/support-center/pkg/util"
)

func openTicket(id, customerID int64) *domain.Ticket {
	return &domain.Ticket{
		ID:          id,
		CustomerID:  customerID,
		Subject:     "Login fails",
		Description: "Cannot sign in since the last update",
		Priority:    domain.TicketPriorityHigh,
		Status:      domain.TicketStatusOpen,
		CreatedAt:   time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func closedTicket(id, customerID int64) *domain.Ticket {
	t := openTicket(id, customerID)
	closedAt := t.CreatedAt.Add(4 * time.Hour)
	t.Status = domain.TicketStatusClosed
	t.ClosedAt = &closedAt
	return t
}

// TestCreateTicket tests ticket creation and input validation.
func TestCreateTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("persists open ticket with trimmed fields", func(t *testing.T) {
		var created *domain.Ticket
		mockRepo := &mocks.MockTicketRepository{
			CreateFunc: func(ctx context.Context, ticket *domain.Ticket) error {
				ticket.ID = 7
				ticket.CreatedAt = time.Now()
				created = ticket
				return nil
			},
		}
		svc := NewTicketService(mockRepo, nil)

		ticket, err := svc.CreateTicket(ctx, 42, TicketCreateInput{
			Subject:     "  Login fails  ",
			Description: " Cannot sign in ",
			Priority:    domain.TicketPriorityHigh,
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(7), ticket.ID)
		assert.Equal(t, "Login fails", created.Subject)
		assert.Equal(t, "Cannot sign in", created.Description)
		assert.Equal(t, domain.TicketStatusOpen, created.Status)
		assert.Nil(t, created.ClosedAt)
	})

	t.Run("defaults priority to medium", func(t *testing.T) {
		mockRepo := &mocks.MockTicketRepository{
			CreateFunc: func(ctx context.Context, ticket *domain.Ticket) error {
				return nil
			},
		}
		svc := NewTicketService(mockRepo, nil)

		ticket, err := svc.CreateTicket(ctx, 42, TicketCreateInput{Subject: "s", Description: "d"})

		assert.NoError(t, err)
		assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	})

	t.Run("empty subject persists nothing", func(t *testing.T) {
		mockRepo := &mocks.MockTicketRepository{
			CreateFunc: func(ctx context.Context, ticket *domain.Ticket) error {
				t.Fatal("Create must not be called")
				return nil
			},
		}
		svc := NewTicketService(mockRepo, nil)

		_, err := svc.CreateTicket(ctx, 42, TicketCreateInput{Subject: "   ", Description: "d"})

		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
	})

	t.Run("empty description persists nothing", func(t *testing.T) {
		mockRepo := &mocks.MockTicketRepository{}
		svc := NewTicketService(mockRepo, nil)

		_, err := svc.CreateTicket(ctx, 42, TicketCreateInput{Subject: "s", Description: ""})

		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
	})

	t.Run("unknown priority rejected", func(t *testing.T) {
		mockRepo := &mocks.MockTicketRepository{}
		svc := NewTicketService(mockRepo, nil)

		_, err := svc.CreateTicket(ctx, 42, TicketCreateInput{
			Subject:     "s",
			Description: "d",
			Priority:    domain.TicketPriority("URGENT"),
		})

		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
	})
}

// TestSetStatus tests the transition table and role enforcement.
func TestSetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("customer is always forbidden", func(t *testing.T) {
		svc := NewTicketService(&mocks.MockTicketRepository{}, nil)

		_, err := svc.SetStatus(ctx, domain.RoleCustomer, 1, 7, domain.TicketStatusClosed)

		assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	})

	t.Run("open to in-progress", func(t *testing.T) {
		mockRepo := &mocks.MockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id int64) (*domain.Ticket, error) {
				return openTicket(7, 42), nil
			},
			UpdateStatusFunc: func(ctx context.Context, id int64, from, to domain.TicketStatus) (*time.Time, error) {
				assert.Equal(t, domain.TicketStatusOpen, from)
				assert.Equal(t, domain.TicketStatusInProgress, to)
				return nil, nil
			},
		}
		svc := NewTicketService(mockRepo, nil)

		ticket, err := svc.SetStatus(ctx, domain.RoleSupport, 1, 7, domain.TicketStatusInProgress)

		assert.NoError(t, err)
		assert.Equal(t, domain.TicketStatusInProgress, ticket.Status)
		assert.Nil(t, ticket.ClosedAt)
	})

	t.Run("close sets closed timestamp", func(t *testing.T) {
		now := time.Now()
		mockRepo := &mocks.MockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id int64) (*domain.Ticket, error) {
				ticket := openTicket(7, 42)
				ticket.Status = domain.TicketStatusInProgress
				return ticket, nil
			},
			UpdateStatusFunc: func(ctx context.Context, id int64, from, to domain.TicketStatus) (*time.Time, error) {
				return &now, nil
			},
		}
		svc := NewTicketService(mockRepo, nil)

		ticket, err := svc.SetStatus(ctx, domain.RoleSupport, 1, 7, domain.TicketStatusClosed)

		assert.NoError(t, err)
		assert.Equal(t, domain.TicketStatusClosed, ticket.Status)
		assert.Equal(t, &now, ticket.ClosedAt)
	})

	t.Run("close open ticket directly", func(t *testing.T) {
		now := time.Now()
		mockRepo := &mocks.MockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id int64) (*domain.Ticket, error) {
				return openTicket(7, 42), nil
			},
			UpdateStatusFunc: func(ctx context.Context, id int64, from, to domain.TicketStatus) (*time.Time, error) {
				return &now, nil
			},
		}
		svc := NewTicketService(mockRepo, nil)

		ticket, err := svc.SetStatus(ctx, domain.RoleSupport, 1, 7, domain.TicketStatusClosed)

		assert.NoError(t, err)
		assert.NotNil(t, ticket.ClosedAt)
	})

	t.Run("closing an already closed ticket fails", func(t *testing.T) {
		mockRepo := &mocks.MockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id int64) (*domain.Ticket, error) {
				return closedTicket(7, 42), nil
			},
		}
		svc := NewTicketService(mockRepo, nil)

		_, err := svc.SetStatus(ctx, domain.RoleSupport, 1, 7, domain.TicketStatusClosed)

		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))
	})

	t.Run("in-progress cannot go back to open", func(t *testing.T) {
		mockRepo := &mocks.MockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id int64) (*domain.Ticket, error) {
				ticket := openTicket(7, 42)
				ticket.Status = domain.TicketStatusInProgress
				return ticket, nil
			},
		}
		svc := NewTicketService(mockRepo, nil)

		_, err := svc.SetStatus(ctx, domain.RoleSupport, 1, 7, domain.TicketStatusOpen)

		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		svc := NewTicketService(&mocks.MockTicketRepository{}, nil)

		_, err := svc.SetStatus(ctx, domain.RoleSupport, 1, 7, domain.TicketStatus("RESOLVED"))

		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
	})

	t.Run("missing ticket", func(t *testing.T) {
		mockRepo := &mocks.MockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id int64) (*domain.Ticket, error) {
				return nil, pgx.ErrNoRows
			},
		}
		svc := NewTicketService(mockRepo, nil)

		_, err := svc.SetStatus(ctx, domain.RoleSupport, 1, 99, domain.TicketStatusClosed)

		assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	})

	t.Run("lost race surfaces invalid transition", func(t *testing.T) {
		mockRepo := &mocks.MockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id int64) (*domain.Ticket, error) {
				return openTicket(7, 42), nil
			},
			UpdateStatusFunc: func(ctx context.Context, id int64, from, to domain.TicketStatus) (*time.Time, error) {
				return nil, pgx.ErrNoRows
			},
		}
		svc := NewTicketService(mockRepo, nil)

		_, err := svc.SetStatus(ctx, domain.RoleSupport, 1, 7, domain.TicketStatusClosed)

		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))
	})
}

// TestConcurrentClose verifies exactly one of two racing closers wins.
func TestConcurrentClose(t *testing.T) {
	ctx := context.Background()

	var mu sync.Mutex
	status := domain.TicketStatusOpen

	mockRepo := &mocks.MockTicketRepository{
		GetByIDFunc: func(ctx context.Context, id int64) (*domain.Ticket, error) {
			mu.Lock()
			defer mu.Unlock()
			ticket := openTicket(7, 42)
			ticket.Status = status
			return ticket, nil
		},
		UpdateStatusFunc: func(ctx context.Context, id int64, from, to domain.TicketStatus) (*time.Time, error) {
			mu.Lock()
			defer mu.Unlock()
			if status != from {
				return nil, pgx.ErrNoRows
			}
			status = to
			now := time.Now()
			return &now, nil
		},
	}
	svc := NewTicketService(mockRepo, nil)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SetStatus(ctx, domain.RoleSupport, 1, 7, domain.TicketStatusClosed)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		if err == nil {
			wins++
		} else if apperrors.HasCode(err, apperrors.CodeInvalidTransition) {
			conflicts++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)
	assert.Equal(t, domain.TicketStatusClosed, status)
}

// TestAddComment tests the support-only overwriting comment.
func TestAddComment(t *testing.T) {
	ctx := context.Background()

	t.Run("customer forbidden", func(t *testing.T) {
		svc := NewTicketService(&mocks.MockTicketRepository{}, nil)

		_, err := svc.AddComment(ctx, domain.RoleCustomer, 1, 7, "hello")

		assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	})

	t.Run("overwrites prior comment", func(t *testing.T) {
		prior := "first pass"
		var saved string
		mockRepo := &mocks.MockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id int64) (*domain.Ticket, error) {
				ticket := openTicket(7, 42)
				ticket.Comment = &prior
				return ticket, nil
			},
			SetCommentFunc: func(ctx context.Context, id int64, comment string) error {
				saved = comment
				return nil
			},
		}
		svc := NewTicketService(mockRepo, nil)

		ticket, err := svc.AddComment(ctx, domain.RoleSupport, 1, 7, "escalated to tier 2")

		assert.NoError(t, err)
		assert.Equal(t, "escalated to tier 2", saved)
		assert.Equal(t, "escalated to tier 2", *ticket.Comment)
	})

	t.Run("empty comment rejected", func(t *testing.T) {
		svc := NewTicketService(&mocks.MockTicketRepository{}, nil)

		_, err := svc.AddComment(ctx, domain.RoleSupport, 1, 7, "   ")

		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
	})
}

// TestSubmitReview tests the one-review-per-close-cycle rules.
func TestSubmitReview(t *testing.T) {
	ctx := context.Background()

	t.Run("review on closed ticket", func(t *testing.T) {
		mockRepo := &mocks.MockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id int64) (*domain.Ticket, error) {
				return closedTicket(7, 42), nil
			},
			SetReviewFunc: func(ctx context.Context, id, customerID int64, text string, rating int) error {
				assert.Equal(t, int64(7), id)
				assert.Equal(t, int64(42), customerID)
				return nil
			},
		}
		svc := NewTicketService(mockRepo, nil)

		ticket, err := svc.SubmitReview(ctx, 42, 7, "Fixed fast", 5)

		assert.NoError(t, err)
		assert.Equal(t, "Fixed fast", *ticket.ReviewText)
		assert.Equal(t, 5, *ticket.ReviewRating)
	})

	t.Run("second review fails and first is untouched", func(t *testing.T) {
		mockRepo := &mocks.MockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id int64) (*domain.Ticket, error) {
				ticket := closedTicket(7, 42)
				text := "Fixed fast"
				rating := 5
				ticket.ReviewText = &text
				ticket.ReviewRating = &rating
				return ticket, nil
			},
			SetReviewFunc: func(ctx context.Context, id, customerID int64, text string, rating int) error {
				t.Fatal("SetReview must not be called")
				return nil
			},
		}
		svc := NewTicketService(mockRepo, nil)

		_, err := svc.SubmitReview(ctx, 42, 7, "Actually slow", 1)

		assert.True(t, apperrors.HasCode(err, apperrors.CodeAlreadyReviewed))
	})

	t.Run("open ticket cannot be reviewed", func(t *testing.T) {
		mockRepo := &mocks.MockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id int64) (*domain.Ticket, error) {
				return openTicket(7, 42), nil
			},
		}
		svc := NewTicketService(mockRepo, nil)

		_, err := svc.SubmitReview(ctx, 42, 7, "great", 5)

		assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	})

	t.Run("non-owner forbidden", func(t *testing.T) {
		mockRepo := &mocks.MockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id int64) (*domain.Ticket, error) {
				return closedTicket(7, 42), nil
			},
		}
		svc := NewTicketService(mockRepo, nil)

		_, err := svc.SubmitReview(ctx, 43, 7, "great", 5)

		assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	})

	t.Run("rating out of range", func(t *testing.T) {
		svc := NewTicketService(&mocks.MockTicketRepository{}, nil)

		_, err := svc.SubmitReview(ctx, 42, 7, "great", 6)

		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
	})

	t.Run("concurrent review loses gracefully", func(t *testing.T) {
		mockRepo := &mocks.MockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id int64) (*domain.Ticket, error) {
				return closedTicket(7, 42), nil
			},
			SetReviewFunc: func(ctx context.Context, id, customerID int64, text string, rating int) error {
				return pgx.ErrNoRows
			},
		}
		svc := NewTicketService(mockRepo, nil)

		_, err := svc.SubmitReview(ctx, 42, 7, "great", 5)

		assert.True(t, apperrors.HasCode(err, apperrors.CodeAlreadyReviewed))
	})
}

// TestReopenTicket tests the customer reopen transition.
func TestReopenTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("reopen clears closed timestamp and review", func(t *testing.T) {
		mockRepo := &mocks.MockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id int64) (*domain.Ticket, error) {
				ticket := closedTicket(7, 42)
				text := "meh"
				rating := 2
				ticket.ReviewText = &text
				ticket.ReviewRating = &rating
				return ticket, nil
			},
			ReopenFunc: func(ctx context.Context, id, customerID int64) error {
				return nil
			},
		}
		svc := NewTicketService(mockRepo, nil)

		ticket, err := svc.ReopenTicket(ctx, 42, 7)

		assert.NoError(t, err)
		assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
		assert.Nil(t, ticket.ClosedAt)
		assert.Nil(t, ticket.ReviewText)
		assert.Nil(t, ticket.ReviewRating)
	})

	t.Run("only closed tickets reopen", func(t *testing.T) {
		mockRepo := &mocks.MockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id int64) (*domain.Ticket, error) {
				return openTicket(7, 42), nil
			},
		}
		svc := NewTicketService(mockRepo, nil)

		_, err := svc.ReopenTicket(ctx, 42, 7)

		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))
	})

	t.Run("non-owner forbidden", func(t *testing.T) {
		mockRepo := &mocks.MockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id int64) (*domain.Ticket, error) {
				return closedTicket(7, 42), nil
			},
		}
		svc := NewTicketService(mockRepo, nil)

		_, err := svc.ReopenTicket(ctx, 43, 7)

		assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	})
}

// TestListTickets tests role scoping of listings.
func TestListTickets(t *testing.T) {
	ctx := context.Background()

	t.Run("customer listing passes through", func(t *testing.T) {
		mockRepo := &mocks.MockTicketRepository{
			ListByCustomerFunc: func(ctx context.Context, customerID int64) ([]domain.Ticket, error) {
				assert.Equal(t, int64(42), customerID)
				return []domain.Ticket{*openTicket(9, 42), *openTicket(7, 42)}, nil
			},
		}
		svc := NewTicketService(mockRepo, nil)

		tickets, err := svc.ListTicketsForCustomer(ctx, 42)

		assert.NoError(t, err)
		assert.Len(t, tickets, 2)
	})

	t.Run("list all requires support", func(t *testing.T) {
		svc := NewTicketService(&mocks.MockTicketRepository{}, nil)

		_, err := svc.ListAllTickets(ctx, domain.RoleCustomer)

		assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	})

	t.Run("list all for support", func(t *testing.T) {
		mockRepo := &mocks.MockTicketRepository{
			ListAllWithCustomerFunc: func(ctx context.Context) ([]domain.TicketWithCustomer, error) {
				return []domain.TicketWithCustomer{
					{Ticket: *openTicket(7, 42), CustomerName: "Acme"},
				}, nil
			},
		}
		svc := NewTicketService(mockRepo, nil)

		tickets, err := svc.ListAllTickets(ctx, domain.RoleSupport)

		assert.NoError(t, err)
		assert.Len(t, tickets, 1)
		assert.Equal(t, "Acme", tickets[0].CustomerName)
	})
}

// TestTicketLifecycleScenario walks the full create -> in-progress -> close
// -> review flow, including the status/closed-at round-trip invariant.
func TestTicketLifecycleScenario(t *testing.T) {
	ctx := context.Background()

	var mu sync.Mutex
	var stored *domain.Ticket

	mockRepo := &mocks.MockTicketRepository{
		CreateFunc: func(ctx context.Context, ticket *domain.Ticket) error {
			mu.Lock()
			defer mu.Unlock()
			ticket.ID = 1
			ticket.CreatedAt = time.Now()
			copied := *ticket
			stored = &copied
			return nil
		},
		GetByIDFunc: func(ctx context.Context, id int64) (*domain.Ticket, error) {
			mu.Lock()
			defer mu.Unlock()
			copied := *stored
			return &copied, nil
		},
		UpdateStatusFunc: func(ctx context.Context, id int64, from, to domain.TicketStatus) (*time.Time, error) {
			mu.Lock()
			defer mu.Unlock()
			if stored.Status != from {
				return nil, pgx.ErrNoRows
			}
			stored.Status = to
			if to == domain.TicketStatusClosed {
				now := time.Now()
				stored.ClosedAt = &now
				return &now, nil
			}
			stored.ClosedAt = nil
			return nil, nil
		},
		SetReviewFunc: func(ctx context.Context, id, customerID int64, text string, rating int) error {
			mu.Lock()
			defer mu.Unlock()
			if stored.Status != domain.TicketStatusClosed || stored.ReviewText != nil {
				return pgx.ErrNoRows
			}
			stored.ReviewText = &text
			stored.ReviewRating = &rating
			return nil
		},
	}
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewTicketService(mockRepo, dispatcher)

	ticket, err := svc.CreateTicket(ctx, 42, TicketCreateInput{
		Subject:     "Login fails",
		Description: "Cannot sign in",
		Priority:    domain.TicketPriorityHigh,
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Nil(t, ticket.ClosedAt)

	ticket, err = svc.SetStatus(ctx, domain.RoleSupport, 1, ticket.ID, domain.TicketStatusInProgress)
	assert.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, ticket.Status)
	assert.Nil(t, ticket.ClosedAt)

	ticket, err = svc.SetStatus(ctx, domain.RoleSupport, 1, ticket.ID, domain.TicketStatusClosed)
	assert.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, ticket.Status)
	assert.NotNil(t, ticket.ClosedAt)

	ticket, err = svc.SubmitReview(ctx, 42, ticket.ID, "Fixed fast", 5)
	assert.NoError(t, err)
	assert.Equal(t, "Fixed fast", *ticket.ReviewText)

	_, err = svc.SubmitReview(ctx, 42, ticket.ID, "Fixed fast", 5)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAlreadyReviewed))

	// Round-trip invariant held at every step.
	assert.Equal(t, stored.Status == domain.TicketStatusClosed, stored.ClosedAt != nil)
}
