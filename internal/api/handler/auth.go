package handler

import (
	"net/http"

	"github.com/ayo6706/banking-ledger/internal/service"
)

type AuthHandler struct {
	identity *service.IdentityService
}

func NewAuthHandler(identity *service.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

type registerRequest struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Message string `json:"message"`
	*service.Session
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.identity.Register(r.Context(), service.RegisterInput(req))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, sessionResponse{Message: "Registration successful", Session: session})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmailOrUsername string `json:"emailOrUsername"`
		Password        string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.identity.Login(r.Context(), req.EmailOrUsername, req.Password)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, sessionResponse{Message: "Login successful", Session: session})
}

func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AdminKey string `json:"adminKey"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.identity.AdminLogin(r.Context(), req.AdminKey, req.Email, req.Password)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, sessionResponse{Message: "Admin login successful", Session: session})
}
