package http

import (
	"net/http"
	"strings"

	"tally/internal/core"
	"tally/internal/storage"
)

type transactionPage struct {
	Items []core.Transaction `json:"items"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var txn core.Transaction
	if err := decodeJSON(r, &txn); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	created, err := s.ledger.CreateTransaction(r.Context(), txn)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ttype := core.TransactionType(strings.TrimSpace(r.URL.Query().Get("type")))
	if ttype != "" && !ttype.Valid() {
		writeBadRequest(w, "invalid transaction type")
		return
	}

	filter := storage.TransactionFilter{
		Type:       ttype,
		CategoryID: queryInt64Ptr(r, "categoryId"),
		AccountID:  queryInt64Ptr(r, "accountId"),
		StartDate:  queryDate(r, "startDate"),
		EndDate:    queryDate(r, "endDate"),
		Page:       queryInt(r, "page", 1),
		Limit:      queryInt(r, "limit", 50),
	}

	items, total, err := s.ledger.ListTransactions(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []core.Transaction{}
	}

	writeJSON(w, http.StatusOK, transactionPage{
		Items: items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}

func (s *Server) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)

	items, err := s.ledger.ListRecentTransactions(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid transaction id")
		return
	}

	txn, err := s.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid transaction id")
		return
	}

	var txn core.Transaction
	if err := decodeJSON(r, &txn); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	updated, err := s.ledger.UpdateTransaction(r.Context(), id, txn)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid transaction id")
		return
	}

	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
