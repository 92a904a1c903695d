package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

const maxBodyBytes = 64 << 10

// errMalformed marks input that cannot be read at all, as opposed to a
// well-formed request carrying an invalid value.
var errMalformed = errors.New("malformed request")

type transactionRequest struct {
	AccountID    *int64 `json:"account_id" validate:"omitempty,gt=0"`
	SpendingType string `json:"spending_type" validate:"required,max=32"`
	Amount       string `json:"amount" validate:"required,max=32"`
	Product      string `json:"product" validate:"max=200"`
	Description  string `json:"description" validate:"max=1000"`
}

// parseTransactionRequest decodes and shape-checks the body, then converts it
// to a domain request. Amount and spending type rules are left to the core.
func (s *Server) parseTransactionRequest(r *http.Request) (core.TransactionRequest, error) {
	var body transactionRequest
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return core.TransactionRequest{}, fmt.Errorf("%w: empty body", errMalformed)
		}
		return core.TransactionRequest{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if err := s.validate.Struct(body); err != nil {
		return core.TransactionRequest{}, fmt.Errorf("%w: %v", errMalformed, err)
	}

	amount, err := core.ParseAmount(body.Amount)
	if err != nil {
		return core.TransactionRequest{}, err
	}

	return core.TransactionRequest{
		AccountID:    body.AccountID,
		SpendingType: body.SpendingType,
		Amount:       amount,
		Product:      sanitizeInput(body.Product),
		Description:  sanitizeInput(body.Description),
	}, nil
}

func parseAccountID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: account id %q", errMalformed, raw)
	}
	return id, nil
}

// parseLimit reads ?limit=. Zero means the service default.
func parseLimit(r *http.Request, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: limit %q", errMalformed, raw)
	}
	if n > max {
		n = max
	}
	return n, nil
}

// sanitizeInput trims and drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
