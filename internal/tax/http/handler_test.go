package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/nusantara-erp/nusantara-erp/internal/ledger"
	"github.com/nusantara-erp/nusantara-erp/internal/platform/httpx"
	"github.com/nusantara-erp/nusantara-erp/internal/tax"
)

type stubGateway struct {
	lines []ledger.EntryLine
}

func (s *stubGateway) FindAccounts(context.Context, ledger.AccountFilter) ([]ledger.Account, error) {
	return nil, nil
}

func (s *stubGateway) FindPostedEntryLines(_ context.Context, f ledger.LineFilter) ([]ledger.EntryLine, error) {
	var out []ledger.EntryLine
	for _, ln := range s.lines {
		if len(f.SubTypes) > 0 && !matches(f.SubTypes, ln.Account.SubType) {
			continue
		}
		out = append(out, ln)
	}
	return out, nil
}

func (s *stubGateway) ListPostedEntries(context.Context, ledger.EntryFilter) ([]ledger.JournalEntry, error) {
	return nil, nil
}

func matches(subTypes []string, v string) bool {
	for _, st := range subTypes {
		if st == v {
			return true
		}
	}
	return false
}

func newTestRouter() chi.Router {
	date := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	gw := &stubGateway{lines: []ledger.EntryLine{
		{
			DebitAmount: 5_000_000,
			Entry:       ledger.JournalEntry{EntryDate: date, Status: ledger.EntryStatusPosted},
			Account:     ledger.Account{Type: ledger.AccountTypeExpense, SubType: ledger.SubTypeAdminSalary},
		},
	}}
	handler := NewHandler(nil, tax.NewService(gw, nil))
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r
}

func TestHandlePPh21Envelope(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/tax/reports/pph21?year=2024&month=3", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Success bool              `json:"success"`
		Data    tax.MonthlyReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	require.Equal(t, "PPh21", envelope.Data.TaxType)
	require.Equal(t, float64(25_000), envelope.Data.TotalTax)
	require.Equal(t, "2024-03", envelope.Data.Period)
}

func TestHandlePPh21RejectsBadMonth(t *testing.T) {
	router := newTestRouter()

	for _, query := range []string{"year=2024&month=13", "year=1890&month=3", "month=3", "year=2024"} {
		req := httptest.NewRequest(http.MethodGet, "/tax/reports/pph21?"+query, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equalf(t, http.StatusBadRequest, rec.Code, "query %q", query)
		var problem httpx.ProblemDetail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
		require.Equal(t, "Validation Failed", problem.Title)
	}
}

func TestHandleConstructionSummaryEnvelope(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/tax/reports/construction-summary?year=2024&month=3", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Success bool                    `json:"success"`
		Data    tax.ConstructionSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	require.Equal(t, envelope.Data.PPh21.TotalTax+envelope.Data.PPh23.TotalTax+envelope.Data.PPN.NetPayable, envelope.Data.TotalLiability)
}
