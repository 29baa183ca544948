package ar

import (
	"time"

	"github.com/odyssey-erp/backoffice/internal/money"
)

// Type distinguishes quotations from invoices.
type Type string

const (
	TypeQuotation Type = "quotation"
	TypeInvoice   Type = "invoice"
)

// Valid reports whether t is a known document type.
func (t Type) Valid() bool {
	return t == TypeQuotation || t == TypeInvoice
}

// Status enumerates invoice payment statuses.
type Status string

const (
	StatusDraft         Status = "draft"
	StatusPartiallyPaid Status = "partially_paid"
	StatusPaid          Status = "paid"
	StatusVoid          Status = "void"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPartiallyPaid, StatusPaid, StatusVoid:
		return true
	}
	return false
}

// LineItem is one priced row of an invoice.
type LineItem struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   int64  `json:"unitPrice"`
	Total       int64  `json:"total"`
}

// Payment is a single amount received against an invoice.
type Payment struct {
	ID        int64     `json:"id"`
	InvoiceID int64     `json:"invoiceId"`
	Amount    int64     `json:"amount"`
	Method    string    `json:"method"`
	Date      time.Time `json:"date"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Invoice is a quotation or invoice together with its payment position.
type Invoice struct {
	ID              int64      `json:"id"`
	ClientID        string     `json:"clientId"`
	Type            Type       `json:"type"`
	Number          string     `json:"number"`
	IssueDate       time.Time  `json:"issueDate"`
	DueDate         *time.Time `json:"dueDate,omitempty"`
	Items           []LineItem `json:"items"`
	Subtotal        int64      `json:"subtotal"`
	Discount        int64      `json:"discount"`
	Tax             int64      `json:"tax"`
	Total           int64      `json:"total"`
	Payments        []Payment  `json:"payments"`
	PaidAmount      int64      `json:"paidAmount"`
	RemainingAmount int64      `json:"remainingAmount"`
	Status          Status     `json:"status"`
	Notes           string     `json:"notes"`
	Terms           string     `json:"terms"`
	VoidedAt        *time.Time `json:"voidedAt,omitempty"`
	VoidReason      string     `json:"voidReason,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// DeriveStatus computes the payment status of a non-void invoice.
func DeriveStatus(total, paid int64) Status {
	switch {
	case paid <= 0:
		return StatusDraft
	case paid >= total:
		return StatusPaid
	default:
		return StatusPartiallyPaid
	}
}

// Balance returns the remaining amount and status for the given totals.
// Overpayment clamps the remaining amount at zero.
func Balance(total, paid int64) (int64, Status) {
	return money.ClampNonNegative(total - paid), DeriveStatus(total, paid)
}

// applyPaid sets paid, remaining and status from paid.
func (inv *Invoice) applyPaid(paid int64) {
	inv.PaidAmount = paid
	if inv.Status == StatusVoid {
		inv.RemainingAmount = money.ClampNonNegative(inv.Total - paid)
		return
	}
	inv.RemainingAmount, inv.Status = Balance(inv.Total, paid)
}

// PaymentReceipt is the outcome of RecordPayment.
type PaymentReceipt struct {
	Payment  Payment `json:"payment"`
	Invoice  Invoice `json:"invoice"`
	Replayed bool    `json:"-"`
}

// ReconcileResult describes a reconciliation of one invoice.
type ReconcileResult struct {
	InvoiceID    int64   `json:"invoiceId"`
	StoredPaid   int64   `json:"storedPaid"`
	PaymentsSum  int64   `json:"paymentsSum"`
	StoredStatus Status  `json:"storedStatus"`
	Status       Status  `json:"status"`
	Repaired     bool    `json:"repaired"`
	Invoice      Invoice `json:"invoice"`
}

// Drift is an invoice whose stored figures disagree with its payment rows.
type Drift struct {
	InvoiceID   int64  `json:"invoiceId"`
	Number      string `json:"number"`
	StoredPaid  int64  `json:"storedPaid"`
	PaymentsSum int64  `json:"paymentsSum"`
	Status      Status `json:"status"`
}

// ClientOutstanding aggregates open balances for one client.
type ClientOutstanding struct {
	ClientID  string `json:"clientId"`
	Invoices  int    `json:"invoices"`
	Total     int64  `json:"total"`
	Paid      int64  `json:"paid"`
	Remaining int64  `json:"remaining"`
}

// LineItemInput is a requested invoice row.
type LineItemInput struct {
	Description string
	Quantity    int64
	UnitPrice   int64
}

// CreateInvoiceInput carries the fields required to create an invoice.
type CreateInvoiceInput struct {
	ClientID  string
	Type      Type
	Number    string
	IssueDate time.Time
	DueDate   *time.Time
	Items     []LineItemInput
	Discount  int64
	Tax       int64
	Notes     string
	Terms     string
}

// RecordPaymentInput carries a payment against an invoice.
type RecordPaymentInput struct {
	InvoiceID      int64
	Amount         int64
	Method         string
	Date           time.Time
	Reference      string
	IdempotencyKey string
}

// VoidInvoiceInput identifies the invoice to void.
type VoidInvoiceInput struct {
	InvoiceID int64
	Reason    string
}

// InvoiceFilter narrows ListInvoices. Zero values mean "any".
type InvoiceFilter struct {
	ClientID string
	Type     Type
	Status   Status
	Limit    int
	Offset   int
}
