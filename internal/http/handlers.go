package http

import (
	"context"
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), s.config.ReadyTimeout)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err.Error())
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := s.ledger.CreateAccount(r.Context())
	if err != nil {
		s.respondError(w, r, err, applog.OpCreate)
		return
	}
	writeJSON(w, http.StatusCreated, accountCreatedResponse{AccountID: id})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseTransactionRequest(r)
	if err != nil {
		s.respondError(w, r, err, applog.OpApply)
		return
	}

	receipt, err := s.ledger.ProcessTransaction(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err, applog.OpApply)
		return
	}

	s.events.LogTransactionRecorded(r.Context(), receipt.AccountID, receipt.TransactionID,
		req.SpendingType, core.FormatAmount(req.Amount), core.FormatAmount(receipt.Balance))
	writeJSON(w, http.StatusOK, newReceiptResponse(receipt))
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	id, err := parseAccountID(r)
	if err != nil {
		s.respondError(w, r, err, applog.OpRead)
		return
	}

	snap, err := s.ledger.GetBalanceSnapshot(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, applog.OpRead)
		return
	}
	writeJSON(w, http.StatusOK, newBalanceResponse(snap))
}

func (s *Server) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := parseAccountID(r)
	if err != nil {
		s.respondError(w, r, err, applog.OpList)
		return
	}
	limit, err := parseLimit(r, s.config.MaxRecentLimit)
	if err != nil {
		s.respondError(w, r, err, applog.OpList)
		return
	}

	txs, err := s.ledger.GetRecentTransactions(r.Context(), id, limit)
	if err != nil {
		s.respondError(w, r, err, applog.OpList)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionsResponse(id, txs))
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, op string) {
	status, body := errorStatus(err)
	if status >= http.StatusInternalServerError {
		fields := applog.NewFields().WithErrorType(applog.ErrorTypeInternal)
		if body.Step != "" {
			fields[applog.FieldStep] = body.Step
		}
		s.events.LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, op, fields)
	}
	writeError(w, status, body)
}
