package ar

import "github.com/odyssey-erp/backoffice/internal/shared"

var (
	// ErrInvoiceNotFound indicates the invoice does not exist.
	ErrInvoiceNotFound = shared.NotFound("invoice not found")
	// ErrPaymentNotFound indicates the payment does not exist.
	ErrPaymentNotFound = shared.NotFound("payment not found")
	// ErrInvoiceVoid rejects payments against a void invoice.
	ErrInvoiceVoid = shared.Conflict("invoice is void")
	// ErrVoidWithPayments rejects voiding an invoice that has received money.
	ErrVoidWithPayments = shared.Conflict("invoice has payments and cannot be voided")
	// ErrAlreadyVoid rejects voiding twice.
	ErrAlreadyVoid = shared.Conflict("invoice is already void")
	// ErrDuplicateNumber indicates the invoice number is taken.
	ErrDuplicateNumber = shared.Conflict("invoice number already exists")
)
