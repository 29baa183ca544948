package shares

import "github.com/odyssey-erp/backoffice/internal/shared"

var (
	// ErrShareNotFound indicates the share does not exist.
	ErrShareNotFound = shared.NotFound("marketer share not found")
	// ErrAlreadyPaid rejects marking a paid share again.
	ErrAlreadyPaid = shared.Conflict("marketer share is already paid")
)
