package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"fintrack/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Step  string `json:"step,omitempty"`
}

type accountCreatedResponse struct {
	AccountID int64 `json:"account_id"`
}

type receiptResponse struct {
	AccountID      int64  `json:"account_id"`
	TransactionID  int64  `json:"transaction_id"`
	AccountCreated bool   `json:"account_created"`
	Balance        string `json:"balance"`
}

type balanceResponse struct {
	AccountID            int64  `json:"account_id"`
	Balance              string `json:"balance"`
	DailySpendingTotal   string `json:"daily_spending_total"`
	WeeklySpendingTotal  string `json:"weekly_spending_total"`
	MonthlySpendingTotal string `json:"monthly_spending_total"`
	YearlySpendingTotal  string `json:"yearly_spending_total"`
	CurrentInvestments   string `json:"current_investments"`
}

type transactionResponse struct {
	TransactionID int64  `json:"transaction_id"`
	AccountID     int64  `json:"account_id"`
	Amount        string `json:"amount"`
	Timestamp     string `json:"timestamp"`
	Product       string `json:"product"`
	Description   string `json:"description"`
	SpendingType  string `json:"spending_type"`
}

type transactionsResponse struct {
	AccountID    int64                 `json:"account_id"`
	Transactions []transactionResponse `json:"transactions"`
}

func newReceiptResponse(r core.Receipt) receiptResponse {
	return receiptResponse{
		AccountID:      r.AccountID,
		TransactionID:  r.TransactionID,
		AccountCreated: r.AccountCreated,
		Balance:        core.FormatAmount(r.Balance),
	}
}

func newBalanceResponse(s core.BalanceSnapshot) balanceResponse {
	return balanceResponse{
		AccountID:            s.AccountID,
		Balance:              core.FormatAmount(s.Balance),
		DailySpendingTotal:   core.FormatAmount(s.Daily),
		WeeklySpendingTotal:  core.FormatAmount(s.Weekly),
		MonthlySpendingTotal: core.FormatAmount(s.Monthly),
		YearlySpendingTotal:  core.FormatAmount(s.Yearly),
		CurrentInvestments:   core.FormatAmount(s.Investments),
	}
}

func newTransactionsResponse(accountID int64, txs []core.Transaction) transactionsResponse {
	out := transactionsResponse{AccountID: accountID, Transactions: make([]transactionResponse, 0, len(txs))}
	for _, t := range txs {
		out.Transactions = append(out.Transactions, transactionResponse{
			TransactionID: t.ID,
			AccountID:     t.AccountID,
			Amount:        core.FormatAmount(t.Amount),
			Timestamp:     t.Timestamp.UTC().Format(time.RFC3339),
			Product:       t.Product,
			Description:   t.Description,
			SpendingType:  string(t.SpendingType),
		})
	}
	return out
}

// errorStatus maps a service error to its HTTP status and body.
func errorStatus(err error) (int, errorResponse) {
	var (
		pe *core.ProcessingError
		se *core.StorageError
	)
	switch {
	case errors.Is(err, core.ErrAccountNotFound):
		return http.StatusNotFound, errorResponse{Error: err.Error(), Code: "account_not_found"}
	case errors.Is(err, core.ErrTransactionNotFound):
		return http.StatusNotFound, errorResponse{Error: err.Error(), Code: "transaction_not_found"}
	case errors.Is(err, core.ErrInvalidSpendingType):
		return http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "invalid_spending_type"}
	case errors.Is(err, core.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "invalid_amount"}
	case errors.Is(err, errMalformed):
		return http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "malformed_request"}
	case errors.As(err, &pe):
		return http.StatusInternalServerError, errorResponse{Error: "transaction processing failed", Code: "processing_failed", Step: pe.Step}
	case errors.As(err, &se):
		return http.StatusInternalServerError, errorResponse{Error: "storage failure", Code: "storage_error", Step: se.Op}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal_error"}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, body errorResponse) {
	writeJSON(w, status, body)
}
