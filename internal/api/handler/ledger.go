package handler

import (
	"net/http"

	"github.com/ayo6706/banking-ledger/internal/api/middleware"
	"github.com/ayo6706/banking-ledger/internal/service"
	"github.com/shopspring/decimal"
)

type LedgerHandler struct {
	ledger *service.LedgerService
}

func NewLedgerHandler(ledger *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount        decimal.Decimal `json:"amount"`
		PaymentMethod string          `json:"paymentMethod"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.ledger.Deposit(r.Context(), middleware.UserIDFromContext(r.Context()), req.Amount, req.PaymentMethod)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, res)
}

func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount           decimal.Decimal `json:"amount"`
		WithdrawalMethod string          `json:"withdrawalMethod"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.ledger.Withdraw(r.Context(), middleware.UserIDFromContext(r.Context()), req.Amount, req.WithdrawalMethod)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, res)
}

func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RecipientAccountNumber string          `json:"recipientAccountNumber"`
		Amount                 decimal.Decimal `json:"amount"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if !requireField(w, r, req.RecipientAccountNumber, "recipientAccountNumber") {
		return
	}
	res, err := h.ledger.Transfer(r.Context(), middleware.UserIDFromContext(r.Context()), req.RecipientAccountNumber, req.Amount)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, res)
}
