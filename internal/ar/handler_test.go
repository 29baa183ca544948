package ar

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, newTestService(newMemoryARRepo()))
	r := chi.NewRouter()
	r.Route("/api/v1", handler.MountRoutes)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	return rec, envelope
}

const createBody = `{
	"clientId": "client-7",
	"type": "invoice",
	"number": "INV-2024-0001",
	"issueDate": "2024-05-01",
	"dueDate": "2024-05-31",
	"items": [{"description": "Website build", "quantity": 1, "unitPrice": 5000000}],
	"discount": 0,
	"tax": 450000
}`

func TestInvoiceHandlersHappyPath(t *testing.T) {
	h := newTestRouter(t)

	rec, env := do(t, h, http.MethodPost, "/api/v1/invoice", createBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, "true", string(env["success"]))
	var inv Invoice
	require.NoError(t, json.Unmarshal(env["invoice"], &inv))
	require.Equal(t, int64(5_450_000), inv.Total)
	require.Equal(t, StatusDraft, inv.Status)
	require.NotNil(t, inv.DueDate)

	rec, env = do(t, h, http.MethodPost, "/api/v1/invoice/1/payment",
		`{"amount": 2000000, "method": "transfer", "date": "2024-05-10"}`,
		"Idempotency-Key", "0b7f1f55-8f7b-4d0e-a5d4-6d1a9f0b5c11")
	require.Equal(t, http.StatusCreated, rec.Code)
	var payment Payment
	require.NoError(t, json.Unmarshal(env["payment"], &payment))
	require.Equal(t, int64(2_000_000), payment.Amount)
	require.NoError(t, json.Unmarshal(env["invoice"], &inv))
	require.Equal(t, StatusPartiallyPaid, inv.Status)
	require.Equal(t, int64(3_450_000), inv.RemainingAmount)

	rec, _ = do(t, h, http.MethodPost, "/api/v1/invoice/1/payment",
		`{"amount": 2000000, "method": "transfer", "date": "2024-05-10"}`,
		"Idempotency-Key", "0b7f1f55-8f7b-4d0e-a5d4-6d1a9f0b5c11")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = do(t, h, http.MethodGet, "/api/v1/invoice/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env["invoice"], &inv))
	require.Len(t, inv.Payments, 1)

	rec, env = do(t, h, http.MethodGet, "/api/v1/invoice?clientId=client-7&status=partially_paid", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []Invoice
	require.NoError(t, json.Unmarshal(env["invoices"], &list))
	require.Len(t, list, 1)
}

func TestInvoiceHandlersErrorEnvelope(t *testing.T) {
	h := newTestRouter(t)
	_, _ = do(t, h, http.MethodPost, "/api/v1/invoice", createBody)

	cases := []struct {
		name, method, path, body string
		status                   int
		code                     string
	}{
		{"missing fields", http.MethodPost, "/api/v1/invoice", `{"type":"invoice"}`, http.StatusBadRequest, "ValidationError"},
		{"fractional amount", http.MethodPost, "/api/v1/invoice/1/payment", `{"amount": 10.5}`, http.StatusBadRequest, "ValidationError"},
		{"unknown invoice", http.MethodGet, "/api/v1/invoice/77", "", http.StatusNotFound, "NotFoundError"},
		{"bad id", http.MethodGet, "/api/v1/invoice/abc", "", http.StatusBadRequest, "ValidationError"},
		{"duplicate number", http.MethodPost, "/api/v1/invoice", createBody, http.StatusConflict, "ConflictError"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := do(t, h, tc.method, tc.path, tc.body)
			require.Equal(t, tc.status, rec.Code)
			require.JSONEq(t, "false", string(env["success"]))
			require.JSONEq(t, `"`+tc.code+`"`, string(env["code"]))
			require.NotEmpty(t, env["error"])
		})
	}
}

func TestVoidHandlerConflictsAfterPayment(t *testing.T) {
	h := newTestRouter(t)
	_, _ = do(t, h, http.MethodPost, "/api/v1/invoice", createBody)
	rec, _ := do(t, h, http.MethodPost, "/api/v1/invoice/1/payment", `{"amount": 5450000}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := do(t, h, http.MethodPost, "/api/v1/invoice/1/void", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.JSONEq(t, `"ConflictError"`, string(env["code"]))
}

func TestVoidHandlerAcceptsEmptyBody(t *testing.T) {
	h := newTestRouter(t)
	_, _ = do(t, h, http.MethodPost, "/api/v1/invoice", createBody)

	rec, env := do(t, h, http.MethodPost, "/api/v1/invoice/1/void", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var inv Invoice
	require.NoError(t, json.Unmarshal(env["invoice"], &inv))
	require.Equal(t, StatusVoid, inv.Status)
}
