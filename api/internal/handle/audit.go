package handle

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jasmere27/verifact/api/internal/verify"
)

// AuditFinder looks up the newest audited verdict for a fingerprint.
type AuditFinder interface {
	FindRecent(ctx context.Context, fp verify.Fingerprint, maxAge time.Duration) (verify.Verdict, error)
}

// WithAudit enables the audit lookup endpoint.
func (h *Handle) WithAudit(a AuditFinder) *Handle {
	h.audit = a
	return h
}

// AuditRecent handles GET /v1/audit/recent?fingerprint=...&maxAgeSec=...:
// an operational lookup into the audit log. It never feeds verdicts back
// into a session cache.
func (h *Handle) AuditRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "GET only", Code: "method_not_allowed"})
		return
	}
	if h.audit == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "audit store is not configured", Code: "audit_unavailable"})
		return
	}

	fp := r.URL.Query().Get("fingerprint")
	if fp == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing fingerprint parameter", Code: "bad_request"})
		return
	}
	var maxAge time.Duration
	if s := r.URL.Query().Get("maxAgeSec"); s != "" {
		if v, _ := strconv.Atoi(s); v > 0 {
			maxAge = time.Duration(v) * time.Second
		}
	}

	v, err := h.audit.FindRecent(r.Context(), verify.Fingerprint(fp), maxAge)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no audited verdict for fingerprint", Code: "not_found"})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error(), Code: "internal"})
	default:
		writeJSON(w, http.StatusOK, v)
	}
}
