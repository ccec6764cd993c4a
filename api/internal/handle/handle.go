package handle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jasmere27/verifact/api/internal/verify"
)

type Analyzer interface {
	Analyze(ctx context.Context, sessionID string, req verify.AnalysisRequest) (verify.Verdict, error)
}

type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type Handle struct {
	svc    Analyzer
	ocr    Recognizer
	speech Transcriber
	audit  AuditFinder
}

func New(svc Analyzer, ocr Recognizer, speech Transcriber) *Handle {
	return &Handle{svc: svc, ocr: ocr, speech: speech}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeAnalyzeError maps the error taxonomy onto HTTP statuses with a
// stable machine-readable code per failure class.
func writeAnalyzeError(w http.ResponseWriter, err error) {
	var sv *verify.SchemaViolationError
	switch {
	case errors.Is(err, verify.ErrEmptyInput):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: "empty_input"})
	case errors.Is(err, verify.ErrUnknownEngine):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: "unknown_engine"})
	case errors.Is(err, verify.ErrURLUnreachable):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Code: "url_unreachable"})
	case errors.Is(err, verify.ErrUpstreamUnavailable):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error(), Code: "upstream_unavailable"})
	case errors.As(err, &sv):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error(), Code: "schema_violation"})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, errorBody{Error: "analysis timed out", Code: "timeout"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error(), Code: "internal"})
	}
}

// requestDeadline honors X-Request-Timeout (seconds) or ?timeoutSec, with
// a default.
func requestDeadline(r *http.Request, def time.Duration) time.Duration {
	if ts := r.Header.Get("X-Request-Timeout"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			return time.Duration(v) * time.Second
		}
	}
	if ts := r.URL.Query().Get("timeoutSec"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			return time.Duration(v) * time.Second
		}
	}
	return def
}

// sessionID is the caller-supplied correlation id scoping verdict
// consistency.
func sessionID(r *http.Request) string {
	return r.Header.Get("X-Session-ID")
}
