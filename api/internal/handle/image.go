package handle

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jasmere27/verifact/api/internal/util"
	"github.com/jasmere27/verifact/api/internal/verify"
)

type imageRequest struct {
	ImageB64 string `json:"image_b64"`
	LLMName  string `json:"llm_name,omitempty"`
}

// CheckImage handles POST /v1/check/image: OCR the image, then analyze
// the extracted text as ImageDerivedText.
func (h *Handle) CheckImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "POST only", Code: "method_not_allowed"})
		return
	}
	sid := sessionID(r)
	if sid == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing X-Session-ID header", Code: "missing_session"})
		return
	}
	if h.ocr == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "image OCR is not configured", Code: "ocr_unavailable"})
		return
	}

	var req imageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad json: " + err.Error(), Code: "bad_request"})
		return
	}
	img, _, err := util.DecodeBase64MaybeDataURL(req.ImageB64)
	if err != nil || len(img) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad image_b64", Code: "bad_request"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestDeadline(r, defaultDeadline))
	defer cancel()

	text, err := h.ocr.Recognize(ctx, img)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "ocr failed: " + err.Error(), Code: "ocr_failed"})
		return
	}
	if strings.TrimSpace(text) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "no readable text found in the image", Code: "empty_input"})
		return
	}

	verdict, err := h.svc.Analyze(ctx, sid, verify.AnalysisRequest{
		Payload:    text,
		Modality:   verify.ModalityImageText,
		EngineName: req.LLMName,
	})
	if err != nil {
		writeAnalyzeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}
