package handler

import (
	"context"
	"net/http"

	"github.com/ayo6706/banking-ledger/internal/service"
	"github.com/shopspring/decimal"
)

// AdminHandler exposes operator endpoints. Routes are mounted behind
// RequireRole(admin); the service checks the role again.
type AdminHandler struct {
	admin *service.AdminService
}

func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

type userIDRequest struct {
	UserID string `json:"userId"`
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.ListUsers(r.Context(), actorFromRequest(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.admin.ListTransactions(r.Context(), actorFromRequest(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, txns)
}

func (h *AdminHandler) FundUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string          `json:"userId"`
		Amount decimal.Decimal `json:"amount"`
	}
	if !decodeJSON(w, r, &req) || !requireField(w, r, req.UserID, "userId") {
		return
	}
	res, err := h.admin.FundUser(r.Context(), actorFromRequest(r), req.UserID, req.Amount)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
		*service.FundResult
	}{"User funded successfully", res})
}

func (h *AdminHandler) EditBalance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID     string           `json:"userId"`
		NewBalance *decimal.Decimal `json:"newBalance"`
	}
	if !decodeJSON(w, r, &req) || !requireField(w, r, req.UserID, "userId") {
		return
	}
	if req.NewBalance == nil {
		RespondError(w, r, http.StatusBadRequest, "validation", "newBalance is required")
		return
	}
	res, err := h.admin.EditBalance(r.Context(), actorFromRequest(r), req.UserID, *req.NewBalance)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
		*service.BalanceEditResult
	}{"Balance updated successfully", res})
}

func (h *AdminHandler) Ban(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, "User banned successfully", h.admin.Ban)
}

func (h *AdminHandler) Unban(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, "User unbanned successfully", h.admin.Unban)
}

func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) || !requireField(w, r, req.UserID, "userId") || !requireField(w, r, req.Status, "status") {
		return
	}
	change, err := h.admin.SetStatus(r.Context(), actorFromRequest(r), req.UserID, req.Status)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User status updated successfully",
		"user":    change,
	})
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	var req userIDRequest
	if !decodeJSON(w, r, &req) || !requireField(w, r, req.UserID, "userId") {
		return
	}
	deleted, err := h.admin.DeleteUser(r.Context(), actorFromRequest(r), req.UserID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "User deleted successfully",
		"deletedUser": deleted,
	})
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats(r.Context(), actorFromRequest(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) Reconciliation(w http.ResponseWriter, r *http.Request) {
	report, err := h.admin.Reconcile(r.Context(), actorFromRequest(r))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, report)
}

type statusFunc func(ctx context.Context, actor service.Actor, userID string) (*service.StatusChange, error)

func (h *AdminHandler) changeStatus(w http.ResponseWriter, r *http.Request, message string, apply statusFunc) {
	var req userIDRequest
	if !decodeJSON(w, r, &req) || !requireField(w, r, req.UserID, "userId") {
		return
	}
	change, err := apply(r.Context(), actorFromRequest(r), req.UserID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": message,
		"user":    change,
	})
}
