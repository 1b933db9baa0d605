package domain

import "time"

// CustomerProfile holds contact details owned by exactly one customer account.
type CustomerProfile struct {
	CustomerID  int64
	AccountID   int64
	CompanyName string
	Phone       string
	Address     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
