package verify

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jasmere27/verifact/api/internal/tools"
)

// Normalizer turns a raw payload plus modality hint into the canonical
// analyzable text.
type Normalizer struct {
	Fetch tools.Fetcher
}

// Normalize trims, resolves URLs, and preserves the modality tag for
// downstream prompting. A payload that is blank after conversion is
// ErrEmptyInput regardless of its original modality.
func (n *Normalizer) Normalize(ctx context.Context, payload string, hint Modality) (NormalizedInput, error) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return NormalizedInput{}, ErrEmptyInput
	}

	// The original caller surface passes URLs as plain text, so text-mode
	// payloads that are a single absolute URL resolve too.
	if hint == ModalityURL || (hint == ModalityText && IsAbsoluteURL(trimmed)) {
		if IsAbsoluteURL(trimmed) {
			return n.resolveURL(ctx, trimmed)
		}
		// Tagged as URL but not one: treat as plain text.
		hint = ModalityText
	}

	m := hint
	if m == "" {
		m = ModalityText
	}
	return NormalizedInput{CanonicalText: trimmed, Modality: m}, nil
}

func (n *Normalizer) resolveURL(ctx context.Context, rawURL string) (NormalizedInput, error) {
	if n.Fetch == nil {
		return NormalizedInput{}, fmt.Errorf("%w: fetcher not configured", ErrURLUnreachable)
	}
	page, err := n.Fetch.Fetch(ctx, rawURL)
	if err != nil {
		return NormalizedInput{}, fmt.Errorf("%w: %v", ErrURLUnreachable, err)
	}
	if page.Restricted {
		return NormalizedInput{}, fmt.Errorf("%w: page requires sign-in, private content cannot be analyzed", ErrURLUnreachable)
	}
	text := strings.TrimSpace(strings.TrimSpace(page.Title) + "\n\n" + strings.TrimSpace(page.Body))
	if text == "" {
		return NormalizedInput{}, fmt.Errorf("%w: fetched page contains no readable text", ErrURLUnreachable)
	}
	return NormalizedInput{
		CanonicalText:   text,
		Modality:        ModalityURL,
		ResolvedFromURL: true,
		SourceURL:       rawURL,
	}, nil
}

// IsAbsoluteURL reports whether s is a syntactically valid absolute
// http(s) URL.
func IsAbsoluteURL(s string) bool {
	if strings.ContainsAny(s, " \t\n\r") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
