package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cqms-io/support-center/internal/domain"
)

// TicketRepository encapsulates ticket persistence. Status, review and reopen
// writes are conditional updates keyed on the expected current state, so two
// concurrent writers can never both succeed: the loser observes pgx.ErrNoRows.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]domain.Ticket, error)
	ListAllWithCustomer(ctx context.Context) ([]domain.TicketWithCustomer, error)
	UpdateStatus(ctx context.Context, id int64, from, to domain.TicketStatus) (*time.Time, error)
	SetComment(ctx context.Context, id int64, comment string) error
	SetReview(ctx context.Context, id, customerID int64, text string, rating int) error
	Reopen(ctx context.Context, id, customerID int64) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, customer_id, subject, description, priority, status,
               created_at, closed_at, comment, review_text, review_rating`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (customer_id, subject, description, priority, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		ticket.CustomerID,
		ticket.Subject,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.CustomerID,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.ClosedAt,
		&ticket.Comment,
		&ticket.ReviewText,
		&ticket.ReviewRating,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + `
        FROM tickets WHERE customer_id=$1
        ORDER BY created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListAllWithCustomer(ctx context.Context) ([]domain.TicketWithCustomer, error) {
	const query = `
        SELECT t.id, t.customer_id, t.subject, t.description, t.priority, t.status,
               t.created_at, t.closed_at, t.comment, t.review_text, t.review_rating,
               a.name, p.company_name, p.phone
        FROM tickets t
        JOIN customer_profile p ON t.customer_id = p.customer_id
        JOIN accounts a ON p.account_id = a.id
        ORDER BY t.created_at DESC, t.id DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketWithCustomer
	for rows.Next() {
		var t domain.TicketWithCustomer
		if err := rows.Scan(
			&t.ID,
			&t.CustomerID,
			&t.Subject,
			&t.Description,
			&t.Priority,
			&t.Status,
			&t.CreatedAt,
			&t.ClosedAt,
			&t.Comment,
			&t.ReviewText,
			&t.ReviewRating,
			&t.CustomerName,
			&t.CompanyName,
			&t.Phone,
		); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// UpdateStatus transitions a ticket from an expected status to a new one,
// setting or clearing closed_at in the same statement. Returns the resulting
// closed_at; pgx.ErrNoRows means another writer changed the status first.
func (r *ticketRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.TicketStatus) (*time.Time, error) {
	const query = `
        UPDATE tickets
        SET status=$1,
            closed_at=CASE WHEN $1 = 'CLOSED' THEN NOW() ELSE NULL END
        WHERE id=$2 AND status=$3
        RETURNING closed_at`
	var closedAt *time.Time
	if err := r.pool.QueryRow(ctx, query, to, id, from).Scan(&closedAt); err != nil {
		return nil, err
	}
	return closedAt, nil
}

// SetComment overwrites the single agent comment. Only the latest comment is
// retained.
func (r *ticketRepository) SetComment(ctx context.Context, id int64, comment string) error {
	const query = `UPDATE tickets SET comment=$1 WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, comment, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetReview stores the review only while the ticket is closed, owned by the
// given customer and not yet reviewed in this close-cycle.
func (r *ticketRepository) SetReview(ctx context.Context, id, customerID int64, text string, rating int) error {
	const query = `
        UPDATE tickets SET review_text=$1, review_rating=$2
        WHERE id=$3 AND customer_id=$4 AND status='CLOSED' AND review_text IS NULL`
	cmd, err := r.pool.Exec(ctx, query, text, rating, id, customerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Reopen moves a closed ticket back to OPEN, clearing closed_at and the
// review fields so the next close starts a fresh review cycle.
func (r *ticketRepository) Reopen(ctx context.Context, id, customerID int64) error {
	const query = `
        UPDATE tickets
        SET status='OPEN', closed_at=NULL, review_text=NULL, review_rating=NULL
        WHERE id=$1 AND customer_id=$2 AND status='CLOSED'`
	cmd, err := r.pool.Exec(ctx, query, id, customerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.CustomerID,
			&ticket.Subject,
			&ticket.Description,
			&ticket.Priority,
			&ticket.Status,
			&ticket.CreatedAt,
			&ticket.ClosedAt,
			&ticket.Comment,
			&ticket.ReviewText,
			&ticket.ReviewRating,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
