package handler

import (
	"net/http"

	"github.com/ayo6706/banking-ledger/internal/api/middleware"
	"github.com/ayo6706/banking-ledger/internal/service"
	"github.com/go-chi/chi/v5"
)

// AccountHandler serves the caller's own profile and history.
type AccountHandler struct {
	identity *service.IdentityService
	journal  *service.Journal
	receipts *service.ReceiptService
}

func NewAccountHandler(identity *service.IdentityService, journal *service.Journal, receipts *service.ReceiptService) *AccountHandler {
	return &AccountHandler{identity: identity, journal: journal, receipts: receipts}
}

func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.identity.Profile(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, profile)
}

func (h *AccountHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.journal.ListForUser(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, txns)
}

func (h *AccountHandler) Receipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := h.receipts.ListForUser(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, receipts)
}

// Lookup resolves an account number to its holder's name for transfer previews.
func (h *AccountHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	summary, err := h.identity.LookupAccount(r.Context(), chi.URLParam(r, "accountNumber"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, summary)
}
