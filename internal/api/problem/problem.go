// Package problem writes RFC 7807 problem documents.
package problem

import (
	"encoding/json"
	"net/http"
	"strings"
)

const (
	contentType = "application/problem+json"
	baseTypeURL = "https://errors.banking-ledger.dev/"
	traceHeader = "X-Trace-ID"
)

// Details represents RFC 7807 Problem Details.
type Details struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail"`
	Instance  string `json:"instance"`
	RequestID string `json:"requestId"`
	// Error mirrors Detail for clients that read a flat {"error": "..."} body.
	Error string `json:"error"`
}

// Type expands a slug such as "auth/invalid-token" into a type URI. Absolute
// URIs and about:blank pass through.
func Type(slug string) string {
	if slug == "" || slug == "about:blank" || strings.HasPrefix(slug, "http") {
		return slug
	}
	return baseTypeURL + strings.TrimPrefix(slug, "/")
}

// Respond writes a problem whose title is the status text.
func Respond(w http.ResponseWriter, r *http.Request, status int, slug, detail string) {
	Write(w, r, status, Type(slug), "", detail)
}

// Write sends RFC 7807-compliant errors. The request id is the caller's trace
// header, or the one the trace middleware already set on the response.
func Write(w http.ResponseWriter, r *http.Request, status int, problemType, title, detail string) {
	if title == "" {
		title = http.StatusText(status)
	}
	if problemType == "" {
		problemType = "about:blank"
	}
	if detail == "" {
		detail = title
	}
	d := Details{
		Type:   problemType,
		Title:  title,
		Status: status,
		Detail: detail,
		Error:  detail,
	}
	if r != nil {
		d.Instance = r.URL.Path
		d.RequestID = r.Header.Get(traceHeader)
	}
	if d.RequestID == "" {
		d.RequestID = w.Header().Get(traceHeader)
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(d)
}
