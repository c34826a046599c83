package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ayo6706/banking-ledger/internal/api/middleware"
	"github.com/ayo6706/banking-ledger/internal/api/problem"
	"github.com/ayo6706/banking-ledger/internal/models"
	"github.com/ayo6706/banking-ledger/internal/service"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// RespondError writes an error response.
func RespondError(w http.ResponseWriter, r *http.Request, status int, slug, message string) {
	problem.Respond(w, r, status, slug, message)
}

// decodeJSON reads a single JSON object, rejecting unknown trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Request body must contain a single JSON object")
		return false
	}
	return true
}

// respondServiceError maps the service error classes onto problem responses.
// Storage failures are logged and reported generically.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, slug := statusFor(err)
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("trace_id", middleware.TraceIDFromContext(r.Context())),
			zap.Error(err),
		)
		RespondError(w, r, status, slug, "Server error")
		return
	}
	RespondError(w, r, status, slug, clientMessage(err))
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, models.ErrInsufficientFunds):
		return http.StatusBadRequest, "ledger/insufficient-funds"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "not-found"
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized, "auth/invalid-credentials"
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, "auth/forbidden"
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal-server-error"
	}
}

// clientMessage strips the operation prefixes from a wrapped error, keeping
// the sentinel and whatever detail follows it.
func clientMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{
		models.ErrValidation,
		models.ErrInsufficientFunds,
		models.ErrNotFound,
		models.ErrUnauthorized,
		models.ErrForbidden,
		models.ErrConflict,
	} {
		if idx := strings.Index(msg, sentinel.Error()); idx >= 0 && errors.Is(err, sentinel) {
			if rest := strings.TrimPrefix(msg[idx+len(sentinel.Error()):], ": "); rest != "" {
				return rest
			}
			return capitalize(sentinel.Error())
		}
	}
	return msg
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func actorFromRequest(r *http.Request) service.Actor {
	id := middleware.IdentityFromContext(r.Context())
	return service.Actor{ID: id.UserID, Email: id.Email, Role: id.Role}
}

func requireField(w http.ResponseWriter, r *http.Request, value, name string) bool {
	if strings.TrimSpace(value) == "" {
		RespondError(w, r, http.StatusBadRequest, "validation", fmt.Sprintf("%s is required", name))
		return false
	}
	return true
}
