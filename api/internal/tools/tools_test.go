package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	snippets []Snippet
	err      error
}

func (s *stubSearcher) Search(ctx context.Context, query string) ([]Snippet, error) {
	return s.snippets, s.err
}

type stubFetcher struct {
	page Page
	err  error
}

func (s *stubFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	return s.page, s.err
}

type stubClock struct{ t time.Time }

func (s stubClock) Now() time.Time { return s.t }

func TestInvokeSearchReturnsSnippets(t *testing.T) {
	set := NewSet(&stubSearcher{snippets: []Snippet{
		{Title: "Reuters", Snippet: "The event happened.", Link: "https://reuters.com/a"},
		{Snippet: "untitled result"},
	}}, nil, nil)

	out := set.Invoke(context.Background(), ToolWebSearch, map[string]any{"query": "the event"})
	assert.Contains(t, out, "Reuters: The event happened. (https://reuters.com/a)")
	assert.Contains(t, out, "untitled result")
	assert.Empty(t, set.Failures())
}

func TestInvokeSearchEmptyResultsIsNotAFailure(t *testing.T) {
	set := NewSet(&stubSearcher{}, nil, nil)

	out := set.Invoke(context.Background(), ToolWebSearch, map[string]any{"query": "obscure"})
	assert.Contains(t, out, "No search results were found")
	assert.Empty(t, set.Failures(), "no results is a finding, not an outage")
}

func TestInvokeSearchUnavailableIsRecorded(t *testing.T) {
	set := NewSet(&stubSearcher{err: &SearchUnavailableError{Reason: "quota exceeded"}}, nil, nil)

	out := set.Invoke(context.Background(), ToolWebSearch, map[string]any{"query": "anything"})
	assert.Contains(t, out, "Web search is not available at the moment")
	assert.Contains(t, out, "quota exceeded")

	failures := set.Failures()
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], "web search unavailable")
}

func TestInvokeSearchNotConfigured(t *testing.T) {
	set := NewSet(nil, nil, nil)

	out := set.Invoke(context.Background(), ToolWebSearch, map[string]any{"query": "anything"})
	assert.Contains(t, out, "not configured")
	assert.Len(t, set.Failures(), 1)
}

func TestInvokeSearchMissingQuery(t *testing.T) {
	set := NewSet(&stubSearcher{}, nil, nil)

	out := set.Invoke(context.Background(), ToolWebSearch, nil)
	assert.Contains(t, out, "non-empty query")
	assert.Empty(t, set.Failures())
}

func TestInvokeCurrentDateTime(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	set := NewSet(nil, nil, stubClock{t: fixed})

	out := set.Invoke(context.Background(), ToolCurrentDateTime, nil)
	assert.Equal(t, fixed.Format(time.RFC1123), out)
}

func TestInvokeFetchFailureIsRecorded(t *testing.T) {
	set := NewSet(nil, &stubFetcher{err: errors.New("dial tcp: timeout")}, nil)

	out := set.Invoke(context.Background(), ToolFetchURLContent, map[string]any{"url": "https://example.com"})
	assert.Contains(t, out, "Failed to fetch content from URL")

	failures := set.Failures()
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], "url fetch failed")
}

func TestInvokeFetchRestrictedPage(t *testing.T) {
	set := NewSet(nil, &stubFetcher{page: Page{Title: "Sign in", Restricted: true}}, nil)

	out := set.Invoke(context.Background(), ToolFetchURLContent, map[string]any{"url": "https://docs.example.com/d/1"})
	assert.Contains(t, out, "requires login or sign-in")
	assert.Empty(t, set.Failures(), "a walled page is an answer, not an outage")
}

func TestInvokeFetchTruncatesLongBody(t *testing.T) {
	set := NewSet(nil, &stubFetcher{page: Page{Body: strings.Repeat("a", maxFetchedBody+500)}}, nil)

	out := set.Invoke(context.Background(), ToolFetchURLContent, map[string]any{"url": "https://example.com"})
	assert.Len(t, out, maxFetchedBody)
}

func TestInvokeUnknownTool(t *testing.T) {
	set := NewSet(nil, nil, nil)

	out := set.Invoke(context.Background(), "teleport", nil)
	assert.Contains(t, out, `Unknown tool "teleport"`)
	assert.Contains(t, out, ToolWebSearch)
}

func TestFailuresAreCopied(t *testing.T) {
	set := NewSet(nil, nil, nil)
	set.Invoke(context.Background(), ToolWebSearch, map[string]any{"query": "x"})

	f := set.Failures()
	require.Len(t, f, 1)
	f[0] = "mutated"
	assert.NotEqual(t, "mutated", set.Failures()[0])
}
