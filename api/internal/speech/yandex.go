// Package speech wraps the Yandex SpeechKit recognition API. Audio never
// reaches the fact-checking core; this adapter turns a voice clip into a
// transcript upstream of the analysis. An empty transcript means no speech
// was detected.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jasmere27/verifact/api/internal/ocr/yandex"
)

type Transcriber struct {
	iamc     *yandex.IamClient
	folderID string
	httpc    *http.Client
}

func NewTranscriber(iamc *yandex.IamClient, folderID string) *Transcriber {
	return &Transcriber{
		iamc:     iamc,
		folderID: folderID,
		httpc:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Transcribe recognizes short audio (OggOpus, which is what Telegram voice
// messages use). Returns "" when no speech was detected.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	iamToken, err := t.iamc.Token(ctx)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("folderId", t.folderID)
	q.Set("lang", "en-US")
	endpoint := "https://stt.api.cloud.yandex.net/speech/v1/stt:recognize?" + q.Encode()

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(audio))
	req.Header.Set("Authorization", "Bearer "+iamToken)

	resp, err := t.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("yandex stt %d: %s", resp.StatusCode, string(x))
	}

	var out struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Result), nil
}
