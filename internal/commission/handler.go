package commission

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/backoffice/internal/platform/httpx"
	"github.com/odyssey-erp/backoffice/internal/shared"
)

// Handler exposes the commission rule store and engine over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) createType(w http.ResponseWriter, r *http.Request) {
	var req createTypeRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	ct, err := h.service.CreateCommissionType(r.Context(), req.input())
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "commissionType", ct)
}

func (h *Handler) listTypes(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if raw := r.URL.Query().Get("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.RespondError(w, r, h.logger, shared.Validation("active must be true or false"))
			return
		}
		activeOnly = v
	}
	types, err := h.service.ListCommissionTypes(r.Context(), activeOnly)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "commissionTypes", types)
}

func (h *Handler) showType(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	ct, err := h.service.GetCommissionType(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "commissionType", ct)
}

func (h *Handler) createAssignment(w http.ResponseWriter, r *http.Request) {
	var req createAssignmentRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	a, err := h.service.CreateAssignment(r.Context(), req.input())
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "assignment", a)
}

func (h *Handler) listAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.service.ListActiveAssignments(r.Context(), r.URL.Query().Get("marketerId"))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "assignments", assignments)
}

func (h *Handler) compute(w http.ResponseWriter, r *http.Request) {
	var req computeRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	payment, replayed, err := h.service.ComputeCommission(r.Context(), ComputeInput{
		InvoiceID:        req.InvoiceID,
		InvoiceAmount:    req.InvoiceAmount,
		CommissionTypeID: req.CommissionTypeID,
		AssignmentID:     req.AssignmentID,
		MarketerID:       req.MarketerID,
		MarketerName:     req.MarketerName,
		Period:           req.Period,
		Notes:            req.Notes,
		IdempotencyKey:   r.Header.Get(httpx.IdempotencyKeyHeader),
	})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	httpx.OK(w, status, "commissionPayment", payment)
}

func (h *Handler) markPaid(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	var req markPaidRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil && !errors.Is(err, httpx.ErrEmptyBody) {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	payment, err := h.service.MarkCommissionPaid(r.Context(), id, req.PaymentDate.Time)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "commissionPayment", payment)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := httpx.QueryInt(r, "limit")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	offset, err := httpx.QueryInt(r, "offset")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	var invoiceID int64
	if raw := q.Get("invoiceId"); raw != "" {
		if invoiceID, err = httpx.PathID(raw); err != nil {
			httpx.RespondError(w, r, h.logger, err)
			return
		}
	}
	payments, err := h.service.ListCommissionPayments(r.Context(), PaymentFilter{
		MarketerID: q.Get("marketerId"),
		InvoiceID:  invoiceID,
		Period:     q.Get("period"),
		Status:     PaymentStatus(q.Get("status")),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "commissionPayments", payments)
}

func (h *Handler) showPayment(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	payment, err := h.service.GetCommissionPayment(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "commissionPayment", payment)
}
