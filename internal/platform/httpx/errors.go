package httpx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/backoffice/internal/shared"
)

// ErrorBody is the failure envelope.
type ErrorBody struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Code    shared.Kind `json:"code"`
}

// StatusFor maps an error kind onto an HTTP status.
func StatusFor(kind shared.Kind) int {
	switch kind {
	case shared.KindValidation:
		return http.StatusBadRequest
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes the failure envelope for err. Unavailable and
// unclassified errors are logged and their details withheld from the client.
func RespondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	kind := shared.KindOf(err)
	status := StatusFor(kind)
	if status == http.StatusInternalServerError && logger != nil {
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("error", err),
		)
	}
	JSON(w, status, ErrorBody{
		Success: false,
		Error:   shared.UserSafeMessage(err),
		Code:    kind,
	})
}
