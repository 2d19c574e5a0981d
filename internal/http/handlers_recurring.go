package http

import (
	"net/http"
)

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	payments, err := s.scheduler.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := make([]recurringPaymentResponse, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, toRecurringPaymentResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	payment, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.scheduler.Create(r.Context(), payment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecurringPaymentResponse(created))
}

func (s *Server) handleGetRecurring(w http.ResponseWriter, r *http.Request) {
	payment, err := s.scheduler.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecurringPaymentResponse(payment))
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	payment, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}
	payment.ID = r.PathValue("id")
	updated, err := s.scheduler.Update(r.Context(), payment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecurringPaymentResponse(updated))
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	if err := s.scheduler.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleSettleRecurring(w http.ResponseWriter, r *http.Request) {
	payment, transaction, err := s.scheduler.Settle(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateOverview(transaction.Date)
	writeJSON(w, http.StatusOK, settleResponse{
		Payment:     toRecurringPaymentResponse(payment),
		Transaction: toTransactionResponse(transaction),
	})
}

func (s *Server) handleSkipRecurring(w http.ResponseWriter, r *http.Request) {
	payment, err := s.scheduler.Skip(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecurringPaymentResponse(payment))
}

func (s *Server) handleRollbackRecurring(w http.ResponseWriter, r *http.Request) {
	payment, err := s.scheduler.Rollback(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecurringPaymentResponse(payment))
}
