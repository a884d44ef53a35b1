package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
)

// transactionPayload is the wire shape of a ledger record. Field names
// mirror the stored document so older clients keep working.
type transactionPayload struct {
	ID       string  `json:"id"`
	User     string  `json:"user"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	Date     string  `json:"date"`
	Note     string  `json:"note"`
	Type     string  `json:"type"`
}

func toPayload(tx core.Transaction) transactionPayload {
	return transactionPayload{
		ID:       tx.ID,
		User:     tx.Owner,
		Amount:   tx.Amount,
		Category: tx.Category,
		Date:     tx.OccurredOn,
		Note:     tx.Note,
		Type:     string(core.BackfillKind(tx.Kind)),
	}
}

type budgetPayload struct {
	Limit     float64 `json:"limit"`
	Threshold float64 `json:"threshold"`
}

type summaryPayload struct {
	Year           int                `json:"year"`
	Month          int                `json:"month"`
	TotalIncome    float64            `json:"totalIncome"`
	TotalExpenses  float64            `json:"totalExpenses"`
	Net            float64            `json:"net"`
	CategoryTotals map[string]float64 `json:"categoryTotals"`
}

// owner resolves the caller's identity from the configured header. An
// empty value means the request never passed the auth gateway.
func (s *Server) owner(r *http.Request) string {
	return r.Header.Get(s.authHeader)
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps domain errors onto HTTP statuses. Validation
// failures are client errors, missing records are 404, anything else is
// a server fault logged with its request context.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrNotFound):
		respondError(w, http.StatusNotFound, "transaction not found")
	default:
		slog.ErrorContext(r.Context(), "Request failed", "method", r.Method, "url", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody reads a JSON object body into a key-presence-preserving
// map. Updates distinguish an absent key from an empty value, so the
// handlers work on maps rather than structs.
func decodeBody(r *http.Request) (map[string]any, error) {
	defer r.Body.Close()
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}
