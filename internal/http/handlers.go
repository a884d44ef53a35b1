package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/export"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	owner := s.owner(r)

	txs, err := s.ledger.List(r.Context(), owner)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	payload := make([]transactionPayload, 0, len(txs))
	for _, tx := range txs {
		payload = append(payload, toPayload(tx))
	}
	respondJSON(w, http.StatusOK, payload)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	owner := s.owner(r)

	fields, err := decodeBody(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	tx, err := s.ledger.Create(r.Context(), owner, fields)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toPayload(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	owner := s.owner(r)

	fields, err := decodeBody(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	tx, err := s.ledger.Update(r.Context(), owner, r.PathValue("id"), fields)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toPayload(tx))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	owner := s.owner(r)

	if err := s.ledger.Delete(r.Context(), owner, r.PathValue("id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "transaction deleted"})
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	owner := s.owner(r)

	summary, err := s.ledger.MonthlySummary(r.Context(), owner, r.URL.Query().Get("month"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summaryPayload{
		Year:           summary.Year,
		Month:          summary.Month,
		TotalIncome:    summary.TotalIncome,
		TotalExpenses:  summary.TotalExpenses,
		Net:            summary.Net,
		CategoryTotals: summary.CategoryTotals,
	})
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	owner := s.owner(r)

	policy, err := s.budgets.Get(r.Context(), owner)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, budgetPayload{Limit: policy.Limit, Threshold: policy.Threshold})
}

func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	owner := s.owner(r)

	fields, err := decodeBody(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	policy, err := s.budgets.Upsert(r.Context(), owner, fields)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, budgetPayload{Limit: policy.Limit, Threshold: policy.Threshold})
}

// handleBudgetStatus reports where the month's spending sits relative
// to the owner's policy.
func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	owner := s.owner(r)

	summary, err := s.ledger.MonthlySummary(r.Context(), owner, r.URL.Query().Get("month"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	policy, err := s.budgets.Get(r.Context(), owner)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"state":         string(core.EvaluateBudget(summary.TotalExpenses, policy)),
		"totalExpenses": summary.TotalExpenses,
		"limit":         policy.Limit,
		"threshold":     policy.Threshold,
	})
}

// handleExportCSV streams the owner's ledger as a CSV attachment. The
// type query param filters to income or expense; anything else exports
// everything.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	owner := s.owner(r)

	kind := core.Kind(r.URL.Query().Get("type"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(kind)))

	if err := s.exporter.Write(r.Context(), w, owner, kind); err != nil {
		// Headers are already out; the truncated stream is all we can
		// report to the client.
		slog.ErrorContext(r.Context(), "CSV export aborted", "owner", owner, "error", err)
	}
}
