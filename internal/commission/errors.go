package commission

import "github.com/odyssey-erp/backoffice/internal/shared"

var (
	// ErrTypeNotFound indicates the commission type is missing or inactive.
	ErrTypeNotFound = shared.NotFound("commission type not found or inactive")
	// ErrAssignmentNotFound indicates the assignment is missing or inactive.
	ErrAssignmentNotFound = shared.NotFound("commission assignment not found or inactive")
	// ErrPaymentNotFound indicates the commission payment does not exist.
	ErrPaymentNotFound = shared.NotFound("commission payment not found")
	// ErrAlreadyPaid rejects marking a paid commission again.
	ErrAlreadyPaid = shared.Conflict("commission payment is already paid")
	// ErrUnknownType rejects assignments to a commission type that does not exist.
	ErrUnknownType = shared.Validation("commissionTypeId does not reference an existing commission type")
	// ErrAssignmentTypeMismatch rejects an assignment that belongs to another type.
	ErrAssignmentTypeMismatch = shared.Validation("assignment belongs to a different commission type")
	// ErrMarketerRequired rejects a computation without a resolvable marketer.
	ErrMarketerRequired = shared.Validation("marketerId is required when no assignment supplies one")
)
