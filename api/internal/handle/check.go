package handle

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jasmere27/verifact/api/internal/verify"
)

const defaultDeadline = 180 * time.Second

// Check handles POST /v1/check: a text or URL claim.
func (h *Handle) Check(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "POST only", Code: "method_not_allowed"})
		return
	}
	sid := sessionID(r)
	if sid == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing X-Session-ID header", Code: "missing_session"})
		return
	}

	var req verify.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad json: " + err.Error(), Code: "bad_request"})
		return
	}
	switch req.Modality {
	case "", verify.ModalityText:
		req.Modality = verify.ModalityText
	case verify.ModalityURL, verify.ModalityImageText, verify.ModalityAudioText:
	default:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "unknown modality: " + string(req.Modality), Code: "bad_request"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestDeadline(r, defaultDeadline))
	defer cancel()

	verdict, err := h.svc.Analyze(ctx, sid, req)
	if err != nil {
		writeAnalyzeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}
