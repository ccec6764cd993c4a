package handle

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jasmere27/verifact/api/internal/util"
	"github.com/jasmere27/verifact/api/internal/verify"
)

type audioRequest struct {
	AudioB64 string `json:"audio_b64"`
	LLMName  string `json:"llm_name,omitempty"`
}

// CheckAudio handles POST /v1/check/audio: transcribe the audio, then
// analyze the transcript as AudioDerivedText. A no-speech clip is an
// empty-input client error, not an analysis.
func (h *Handle) CheckAudio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "POST only", Code: "method_not_allowed"})
		return
	}
	sid := sessionID(r)
	if sid == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing X-Session-ID header", Code: "missing_session"})
		return
	}
	if h.speech == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "speech-to-text is not configured", Code: "stt_unavailable"})
		return
	}

	var req audioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad json: " + err.Error(), Code: "bad_request"})
		return
	}
	audio, _, err := util.DecodeBase64MaybeDataURL(req.AudioB64)
	if err != nil || len(audio) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad audio_b64", Code: "bad_request"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestDeadline(r, defaultDeadline))
	defer cancel()

	transcript, err := h.speech.Transcribe(ctx, audio)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "speech recognition failed: " + err.Error(), Code: "stt_failed"})
		return
	}
	if strings.TrimSpace(transcript) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "no speech detected", Code: "empty_input"})
		return
	}

	verdict, err := h.svc.Analyze(ctx, sid, verify.AnalysisRequest{
		Payload:    transcript,
		Modality:   verify.ModalityAudioText,
		EngineName: req.LLMName,
	})
	if err != nil {
		writeAnalyzeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}
