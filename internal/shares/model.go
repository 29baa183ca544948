package shares

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus enumerates the payout lifecycle of a marketer share.
type PaymentStatus string

const (
	StatusPending PaymentStatus = "pending"
	StatusPaid    PaymentStatus = "paid"
)

// Valid reports whether s is a known status.
func (s PaymentStatus) Valid() bool {
	return s == StatusPending || s == StatusPaid
}

// Share is a payout owed to a marketer for a period, independent of commission rules.
type Share struct {
	ID              int64            `json:"id"`
	MarketerID      string           `json:"marketerId"`
	MarketerName    string           `json:"marketerName"`
	ShareAmount     int64            `json:"shareAmount"`
	SharePercentage *decimal.Decimal `json:"sharePercentage,omitempty"`
	Period          string           `json:"period"`
	PaymentDate     *time.Time       `json:"paymentDate,omitempty"`
	PaymentStatus   PaymentStatus    `json:"paymentStatus"`
	Notes           string           `json:"notes"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// CreateShareInput carries a new share.
type CreateShareInput struct {
	MarketerID      string
	MarketerName    string
	ShareAmount     int64
	SharePercentage *decimal.Decimal
	Period          string
	PaymentDate     *time.Time
	Notes           string
}

// ShareFilter narrows ListShares. Zero values mean "any".
type ShareFilter struct {
	MarketerID string
	Period     string
	Status     PaymentStatus
	Limit      int
	Offset     int
}
