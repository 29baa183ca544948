package ar

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/backoffice/internal/platform/httpx"
)

// Handler exposes the invoice ledger over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	inv, err := h.service.CreateInvoice(r.Context(), req.input())
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "invoice", inv)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
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
	q := r.URL.Query()
	invoices, err := h.service.ListInvoices(r.Context(), InvoiceFilter{
		ClientID: q.Get("clientId"),
		Type:     Type(q.Get("type")),
		Status:   Status(q.Get("status")),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "invoices", invoices)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	inv, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "invoice", inv)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	var req recordPaymentRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	receipt, err := h.service.RecordPayment(r.Context(), RecordPaymentInput{
		InvoiceID:      id,
		Amount:         req.Amount,
		Method:         req.Method,
		Date:           req.Date.Time,
		Reference:      req.Reference,
		IdempotencyKey: r.Header.Get(httpx.IdempotencyKeyHeader),
	})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	status := http.StatusCreated
	if receipt.Replayed {
		status = http.StatusOK
	}
	httpx.OKMany(w, status, httpx.Envelope{"payment": receipt.Payment, "invoice": receipt.Invoice})
}

func (h *Handler) void(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	var req voidInvoiceRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil && !errors.Is(err, httpx.ErrEmptyBody) {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	inv, err := h.service.VoidInvoice(r.Context(), VoidInvoiceInput{InvoiceID: id, Reason: req.Reason})
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "invoice", inv)
}
