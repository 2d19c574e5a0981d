package http

import (
	"net/http"

	"bilancio/internal/core"
)

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := s.ledger.ListDebts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]debtResponse, 0, len(debts))
	for _, d := range debts {
		resp = append(resp, toDebtResponse(d))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	var req debtRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	debt, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.ledger.CreateDebt(r.Context(), debt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDebtResponse(created))
}

func (s *Server) handleGetDebt(w http.ResponseWriter, r *http.Request) {
	debt, err := s.ledger.GetDebt(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDebtResponse(debt))
}

func (s *Server) handleUpdateDebt(w http.ResponseWriter, r *http.Request) {
	var req debtRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	debt, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}
	debt.ID = r.PathValue("id")
	updated, err := s.ledger.UpdateDebt(r.Context(), debt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDebtResponse(updated))
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteDebt(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handlePayDebt(w http.ResponseWriter, r *http.Request) {
	var req debtPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	debt, transaction, err := s.ledger.PayDebt(r.Context(), r.PathValue("id"), req.AccountID, amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateOverview(transaction.Date)
	writeJSON(w, http.StatusOK, debtPaymentResponse{
		Debt:        toDebtResponse(debt),
		Transaction: toTransactionResponse(transaction),
	})
}
