package commission

import (
	"time"

	"github.com/shopspring/decimal"
)

// Mode is the calculation basis of a commission type.
type Mode string

const (
	ModePercentage Mode = "percentage"
	ModeFixed      Mode = "fixed"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModePercentage || m == ModeFixed
}

// PaymentStatus enumerates the payout lifecycle of a commission payment.
type PaymentStatus string

const (
	StatusPending PaymentStatus = "pending"
	StatusPaid    PaymentStatus = "paid"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	return s == StatusPending || s == StatusPaid
}

// CommissionType is a commission rule.
type CommissionType struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	ProductCategory string           `json:"productCategory,omitempty"`
	ProductName     string           `json:"productName,omitempty"`
	Mode            Mode             `json:"commissionMode"`
	Rate            *decimal.Decimal `json:"commissionRate,omitempty"`
	FixedAmount     *int64           `json:"fixedAmount,omitempty"`
	MinAmount       *int64           `json:"minAmount,omitempty"`
	MaxAmount       *int64           `json:"maxAmount,omitempty"`
	IsActive        bool             `json:"isActive"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// Assignment layers a marketer specific override on a commission type.
type Assignment struct {
	ID               int64            `json:"id"`
	CommissionTypeID int64            `json:"commissionTypeId"`
	MarketerID       string           `json:"marketerId"`
	MarketerName     string           `json:"marketerName"`
	Factor           string           `json:"factor,omitempty"`
	FactorValue      *decimal.Decimal `json:"factorValue,omitempty"`
	AdditionalRate   decimal.Decimal  `json:"additionalRate"`
	IsActive         bool             `json:"isActive"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// Payment is a computed commission owed to a marketer. Amounts are fixed at
// creation; only the payout status and date change afterwards.
type Payment struct {
	ID               int64           `json:"id"`
	MarketerID       string          `json:"marketerId"`
	MarketerName     string          `json:"marketerName"`
	CommissionTypeID int64           `json:"commissionTypeId"`
	AssignmentID     *int64          `json:"assignmentId,omitempty"`
	InvoiceID        int64           `json:"invoiceId"`
	InvoiceAmount    int64           `json:"invoiceAmount"`
	Mode             Mode            `json:"commissionMode"`
	Rate             decimal.Decimal `json:"commissionRate"`
	BaseAmount       int64           `json:"baseAmount"`
	AdjustmentAmount int64           `json:"adjustmentAmount"`
	CommissionAmount int64           `json:"commissionAmount"`
	Period           string          `json:"period"`
	PaymentStatus    PaymentStatus   `json:"paymentStatus"`
	PaymentDate      *time.Time      `json:"paymentDate,omitempty"`
	Notes            string          `json:"notes"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// CreateTypeInput carries a new commission type.
type CreateTypeInput struct {
	Name            string
	ProductCategory string
	ProductName     string
	Mode            Mode
	Rate            *decimal.Decimal
	FixedAmount     *int64
	MinAmount       *int64
	MaxAmount       *int64
	IsActive        *bool
}

// CreateAssignmentInput carries a new assignment.
type CreateAssignmentInput struct {
	CommissionTypeID int64
	MarketerID       string
	MarketerName     string
	Factor           string
	FactorValue      *decimal.Decimal
	AdditionalRate   *decimal.Decimal
	IsActive         *bool
}

// ComputeInput requests a commission for an invoice event.
type ComputeInput struct {
	InvoiceID        int64
	InvoiceAmount    int64
	CommissionTypeID int64
	AssignmentID     *int64
	MarketerID       string
	MarketerName     string
	Period           string
	Notes            string
	IdempotencyKey   string
}

// PaymentFilter narrows ListCommissionPayments. Zero values mean "any".
type PaymentFilter struct {
	MarketerID string
	InvoiceID  int64
	Period     string
	Status     PaymentStatus
	Limit      int
	Offset     int
}
