package http

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/nusantara-erp/nusantara-erp/internal/platform/httpx"
)

// HandleTrialBalanceCSV streams the trial balance as CSV.
func (h *Handler) HandleTrialBalanceCSV(w http.ResponseWriter, r *http.Request) {
	report, err := h.trialBalance(r)
	h.observe(r.Context(), "trial_balance_csv", err, r)
	if err != nil {
		if isRequestError(err) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		httpx.ReportError(w, "Trial Balance", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=trial-balance-%s.csv", report.AsOf.Format(dateLayout)))
	writer := csv.NewWriter(w)
	writer.UseCRLF = true
	_ = writer.Write([]string{"account_code", "account_name", "account_type", "debit_balance", "credit_balance"})
	for _, row := range report.Rows {
		_ = writer.Write([]string{
			row.AccountCode,
			row.AccountName,
			string(row.AccountType),
			money(row.DebitBalance),
			money(row.CreditBalance),
		})
	}
	_ = writer.Write([]string{"TOTAL", "", "", money(report.TotalDebits), money(report.TotalCredits)})
	writer.Flush()
	if err := writer.Error(); err != nil {
		h.logger.Warn("trial balance csv flush", "error", err)
	}
}

// HandleIncomeStatementCSV streams the income statement as CSV.
func (h *Handler) HandleIncomeStatementCSV(w http.ResponseWriter, r *http.Request) {
	report, err := h.incomeStatement(r)
	h.observe(r.Context(), "income_statement_csv", err, r)
	if err != nil {
		if isRequestError(err) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		httpx.ReportError(w, "Income Statement", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=income-statement-%s-%s.csv",
		report.From.Format(dateLayout), report.To.Format(dateLayout)))
	writer := csv.NewWriter(w)
	writer.UseCRLF = true
	_ = writer.Write([]string{"line", "amount"})
	rows := [][2]string{
		{"revenue", money(report.Revenue)},
		{"direct_costs", money(report.DirectCosts)},
		{"gross_profit", money(report.GrossProfit)},
		{"indirect_costs", money(report.IndirectCosts)},
		{"net_income", money(report.NetIncome)},
		{"gross_profit_margin_pct", money(report.GrossProfitMargin)},
		{"net_profit_margin_pct", money(report.NetProfitMargin)},
	}
	for _, row := range rows {
		_ = writer.Write([]string{row[0], row[1]})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		h.logger.Warn("income statement csv flush", "error", err)
	}
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
