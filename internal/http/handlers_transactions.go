package http

import (
	"net/http"

	"bilancio/internal/core"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	transaction, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.ledger.CreateTransaction(r.Context(), transaction)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateOverview(created.Date)
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	transaction, err := s.ledger.GetTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(transaction))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	// Look the entry up first so the cached month can be dropped.
	transaction, err := s.ledger.GetTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteTransaction(r.Context(), transaction.ID); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateOverview(transaction.Date)
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	transfer, err := s.ledger.TransferFunds(r.Context(), req.FromAccountID, req.ToAccountID, amount, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateOverview(transfer.From.Date)
	writeJSON(w, http.StatusCreated, toTransferResponse(transfer))
}
