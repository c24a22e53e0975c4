package http

import (
	"log/slog"
	"net/http"
	"time"

	"tally/internal/core"
	"tally/internal/export"
	"tally/internal/storage"
)

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)

	// Materialize any due recurring definitions first, so a freshly opened
	// dashboard reflects schedules that came due since the last worker tick.
	if s.recurring != nil {
		if _, err := s.recurring.Process(r.Context(), time.Now()); err != nil {
			slog.ErrorContext(r.Context(), "Recurring processing before summary failed", "error", err)
		}
	}

	summary, err := s.summary.Monthly(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if summary.ByCategory == nil {
		summary.ByCategory = []core.CategoryTotal{}
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	months := queryInt(r, "months", 6)
	if months < 1 || months > 36 {
		writeBadRequest(w, "months must be between 1 and 36")
		return
	}

	points, err := s.summary.Trend(r.Context(), months)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

type processRecurringResponse struct {
	Created int `json:"created"`
}

// handleProcessRecurring triggers one materialization pass on demand, outside
// the worker's tick schedule.
func (s *Server) handleProcessRecurring(w http.ResponseWriter, r *http.Request) {
	created, err := s.recurring.Process(r.Context(), time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, processRecurringResponse{Created: created})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	txns, err := s.ledger.ListAllTransactions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	if err := export.WriteTransactionsCSV(w, txns); err != nil {
		// Headers are already out; all we can do is log.
		slog.ErrorContext(r.Context(), "CSV export failed", "error", err)
	}
}

type verifyBalancesResponse struct {
	Consistent bool                   `json:"consistent"`
	Drifts     []storage.BalanceDrift `json:"drifts"`
}

func (s *Server) handleVerifyBalances(w http.ResponseWriter, r *http.Request) {
	drifts, err := s.ledger.VerifyBalances(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if drifts == nil {
		drifts = []storage.BalanceDrift{}
	}
	writeJSON(w, http.StatusOK, verifyBalancesResponse{
		Consistent: len(drifts) == 0,
		Drifts:     drifts,
	})
}
