package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"

	"github.com/ayo6706/banking-ledger/internal/api/problem"
	"github.com/ayo6706/banking-ledger/internal/idempotency"
	"github.com/ayo6706/banking-ledger/internal/observability"
	"go.uber.org/zap"
)

const IdempotencyHeader = "Idempotency-Key"

// Idempotency replays the recorded response when a mutating request repeats
// its Idempotency-Key. Requests without the header pass through untouched.
// Keys are scoped to the caller so two users cannot collide.
func Idempotency(store *idempotency.Store, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyHeader)
			if store == nil || key == "" || r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > 255 {
				problem.Respond(w, r, http.StatusBadRequest, "idempotency/invalid-key", "Idempotency-Key is too long")
				return
			}
			scoped := UserIDFromContext(r.Context()) + ":" + key

			bodyBytes, err := io.ReadAll(r.Body)
			if err != nil {
				problem.Respond(w, r, http.StatusBadRequest, "request/invalid-body", "Failed to read request body")
				return
			}
			_ = r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

			reqHash := hashRequest(r.Method, r.URL.Path, bodyBytes)
			rec, err := store.Lookup(r.Context(), scoped, reqHash)
			switch {
			case err == nil:
				observability.IncrementIdempotencyEvent("replay")
				respondFromRecord(w, rec)
				return
			case errors.Is(err, idempotency.ErrHashMismatch):
				observability.IncrementIdempotencyEvent("hash_mismatch")
				problem.Respond(w, r, http.StatusConflict, "idempotency/key-conflict", "Idempotency-Key was used with a different request")
				return
			case errors.Is(err, idempotency.ErrInProgress):
				waitAndReplay(w, r, store, scoped, reqHash, logger)
				return
			case !errors.Is(err, idempotency.ErrNotFound):
				observability.IncrementIdempotencyEvent("lookup_error")
				logger.Warn("idempotency lookup failed", zap.Error(err))
			}

			reserved, err := store.Reserve(r.Context(), scoped, reqHash)
			if err != nil {
				observability.IncrementIdempotencyEvent("reserve_error")
				logger.Error("idempotency reserve failed", zap.Error(err))
				problem.Respond(w, r, http.StatusServiceUnavailable, "idempotency/unavailable", "idempotency unavailable")
				return
			}
			if !reserved {
				waitAndReplay(w, r, store, scoped, reqHash, logger)
				return
			}
			observability.IncrementIdempotencyEvent("reserved")

			release := func() {
				if err := store.Release(context.WithoutCancel(r.Context()), scoped); err != nil {
					logger.Warn("idempotency release failed", zap.Error(err))
				}
				observability.IncrementIdempotencyEvent("released")
			}
			// A panicking handler leaves no response to remember. Free the key and
			// let the recover middleware answer.
			defer func() {
				if p := recover(); p != nil {
					release()
					panic(p)
				}
			}()

			recorder := &bodyRecorder{ResponseWriter: w}
			next.ServeHTTP(recorder, r)
			if recorder.status == 0 {
				recorder.status = http.StatusOK
			}

			// Server errors are not remembered; the client may retry with the same key.
			if recorder.status >= http.StatusInternalServerError {
				release()
				return
			}

			contentType := recorder.Header().Get("Content-Type")
			if contentType == "" {
				contentType = "application/json"
			}
			if _, err := store.Finalize(r.Context(), scoped, reqHash, recorder.status, recorder.body.Bytes(), contentType); err != nil {
				observability.IncrementIdempotencyEvent("finalize_error")
				logger.Warn("idempotency finalize failed", zap.Error(err), zap.String("key", key))
				return
			}
			observability.IncrementIdempotencyEvent("finalized")
		})
	}
}

func waitAndReplay(w http.ResponseWriter, r *http.Request, store *idempotency.Store, key, reqHash string, logger *zap.Logger) {
	rec, err := store.WaitForCompletion(r.Context(), key, reqHash)
	if err == nil {
		observability.IncrementIdempotencyEvent("replay_after_wait")
		respondFromRecord(w, rec)
		return
	}
	observability.IncrementIdempotencyEvent("in_progress_conflict")
	logger.Warn("idempotency wait failed", zap.Error(err))
	problem.Respond(w, r, http.StatusConflict, "idempotency/in-progress", "request with this Idempotency-Key is still processing")
}

func hashRequest(method, path string, body []byte) string {
	sum := sha256.Sum256(append([]byte(method+"|"+path+"|"), body...))
	return hex.EncodeToString(sum[:])
}

type bodyRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (br *bodyRecorder) WriteHeader(code int) {
	br.status = code
	br.ResponseWriter.WriteHeader(code)
}

func (br *bodyRecorder) Write(b []byte) (int, error) {
	if br.status == 0 {
		br.status = http.StatusOK
	}
	br.body.Write(b)
	return br.ResponseWriter.Write(b)
}

func respondFromRecord(w http.ResponseWriter, rec *idempotency.Record) {
	w.Header().Set("Content-Type", rec.ContentType)
	w.Header().Set("X-Idempotent-Replay", rec.ServedBy)
	w.WriteHeader(rec.Status)
	_, _ = w.Write(rec.Body)
}
