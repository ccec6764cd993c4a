package tools

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/jasmere27/verifact/api/internal/util"
)

// Page is the readable content of a fetched URL.
type Page struct {
	Title string
	Body  string
	// Restricted marks login-walled pages: the fetch itself worked but the
	// content is not analyzable.
	Restricted bool
}

type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// HTTPFetcher downloads a page and reduces it to plain text.
type HTTPFetcher struct {
	httpc     *http.Client
	sanitizer *bluemonday.Policy
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{
		httpc:     &http.Client{Timeout: timeout},
		sanitizer: bluemonday.StrictPolicy(),
	}
}

var titleRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

// Responses larger than this are cut off before sanitizing.
const maxFetchBytes = 2 << 20

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Page{}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.httpc.Do(req)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return Page{}, err
	}

	doc := string(raw)
	var title string
	if m := titleRe.FindStringSubmatch(doc); len(m) == 2 {
		title = util.CollapseWhitespace(html.UnescapeString(m[1]))
	}
	body := util.CollapseWhitespace(html.UnescapeString(f.sanitizer.Sanitize(doc)))

	page := Page{Title: title, Body: body}
	if isLoginWalled(title, body) {
		page.Restricted = true
	}
	return page, nil
}

// isLoginWalled flags pages that resolve to a sign-in screen rather than
// the content itself (e.g. Google-account gated documents).
func isLoginWalled(title, body string) bool {
	lt := strings.ToLower(title)
	lb := strings.ToLower(body)
	if !strings.Contains(lb, "sign in") && !strings.Contains(lb, "login") {
		return false
	}
	return strings.Contains(lt, "sign in") || strings.Contains(lt, "login") || strings.Contains(lt, "google")
}
