// Package yandex wraps the Yandex Vision OCR REST API. The fact-checking
// core never sees images; this adapter turns a photo of a headline or
// screenshot into plain text upstream of the analysis.
package yandex

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jasmere27/verifact/api/internal/util"
)

type Recognizer struct {
	iamc     *IamClient
	folderID string
	httpc    *http.Client
}

func NewRecognizer(iamc *IamClient, folderID string) *Recognizer {
	return &Recognizer{
		iamc:     iamc,
		folderID: folderID,
		httpc:    &http.Client{Timeout: 60 * time.Second},
	}
}

type request struct {
	Content       string   `json:"content"`
	MimeType      string   `json:"mimeType,omitempty"`      // "JPEG" | "PNG" | "PDF"
	LanguageCodes []string `json:"languageCodes,omitempty"` // ["en","*"]
	Model         string   `json:"model,omitempty"`
}

type response struct {
	Result *struct {
		TextAnnotation *struct {
			FullText string `json:"fullText,omitempty"`
			Blocks   []struct {
				Lines []struct {
					Text string `json:"text,omitempty"`
				} `json:"lines,omitempty"`
			} `json:"blocks,omitempty"`
		} `json:"textAnnotation,omitempty"`
	} `json:"result,omitempty"`
}

// Recognize extracts readable text from an image. Screenshots and news
// clippings are printed text, so the "page" model fits.
func (r *Recognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	iamToken, err := r.iamc.Token(ctx)
	if err != nil {
		return "", err
	}
	reqBody := request{
		Content:       base64.StdEncoding.EncodeToString(image),
		MimeType:      util.SniffMimeForOCR(image),
		LanguageCodes: []string{"en", "*"},
		Model:         "page",
	}
	payload, _ := json.Marshal(reqBody)

	resp, err := r.post(ctx, iamToken, payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// one retry with a fresh IAM token
		resp.Body.Close()
		r.iamc.Invalidate()
		if iamToken, err = r.iamc.Token(ctx); err != nil {
			return "", err
		}
		resp, err = r.post(ctx, iamToken, payload)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()
	}
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("yandex ocr %d: %s", resp.StatusCode, string(x))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Result == nil || out.Result.TextAnnotation == nil {
		return "", nil
	}
	ta := out.Result.TextAnnotation
	if t := strings.TrimSpace(ta.FullText); t != "" {
		return t, nil
	}
	// fallback: join the recognized lines
	var lines []string
	for _, b := range ta.Blocks {
		for _, l := range b.Lines {
			if s := strings.TrimSpace(l.Text); s != "" {
				lines = append(lines, s)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}

func (r *Recognizer) post(ctx context.Context, iamToken string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://ocr.api.cloud.yandex.net/ocr/v1/recognizeText",
		bytes.NewReader(payload),
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+iamToken)
	req.Header.Set("x-folder-id", r.folderID)
	return r.httpc.Do(req)
}
