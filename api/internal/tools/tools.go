// Package tools exposes the capability set the reasoning engine may call
// during an analysis: web search, current date/time and URL content fetch.
// Every invocation goes through Set.Invoke so logging and failure accounting
// live in one place. Adapters never propagate faults upward; a broken
// capability degrades to a textual "unavailable" signal.
package tools

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

const (
	ToolWebSearch       = "web_search"
	ToolCurrentDateTime = "current_datetime"
	ToolFetchURLContent = "fetch_url_content"
)

// Param describes a single tool argument.
type Param struct {
	Name        string
	Description string
}

// Spec is the wire-format-neutral declaration of one capability. Engine
// adapters translate these into their own function-calling schemas.
type Spec struct {
	Name        string
	Description string
	Params      []Param
}

func Specs() []Spec {
	return []Spec{
		{
			Name:        ToolWebSearch,
			Description: "Search the web and return result snippets with titles and links.",
			Params:      []Param{{Name: "query", Description: "search query"}},
		},
		{
			Name:        ToolCurrentDateTime,
			Description: "Return the current date and time in UTC.",
		},
		{
			Name:        ToolFetchURLContent,
			Description: "Fetch a web page and return its title and readable body text.",
			Params:      []Param{{Name: "url", Description: "absolute http(s) URL"}},
		},
	}
}

// Set is the per-request capability dispatcher. It wraps the shared
// adapters and records every capability failure so the final verdict can
// disclose degraded mode.
type Set struct {
	Search Searcher
	Fetch  Fetcher
	Clock  Clock

	mu       sync.Mutex
	failures []string
}

func NewSet(s Searcher, f Fetcher, c Clock) *Set {
	if c == nil {
		c = SystemClock{}
	}
	return &Set{Search: s, Fetch: f, Clock: c}
}

// Failures returns the capability failures recorded during this request.
func (s *Set) Failures() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.failures))
	copy(out, s.failures)
	return out
}

func (s *Set) fail(note string) {
	s.mu.Lock()
	s.failures = append(s.failures, note)
	s.mu.Unlock()
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key]; ok {
		if str, ok := v.(string); ok {
			return strings.TrimSpace(str)
		}
	}
	return ""
}

// Invoke runs one named capability and always returns text for the engine's
// context. Unknown names are reported back to the model, not dropped.
func (s *Set) Invoke(ctx context.Context, name string, args map[string]any) string {
	start := time.Now()
	out := s.invoke(ctx, name, args)
	log.Printf("tool %s (%s): %d bytes", name, time.Since(start).Round(time.Millisecond), len(out))
	return out
}

func (s *Set) invoke(ctx context.Context, name string, args map[string]any) string {
	switch name {
	case ToolWebSearch:
		return s.invokeSearch(ctx, stringArg(args, "query"))
	case ToolCurrentDateTime:
		return s.Clock.Now().UTC().Format(time.RFC1123)
	case ToolFetchURLContent:
		return s.invokeFetch(ctx, stringArg(args, "url"))
	default:
		return fmt.Sprintf("Unknown tool %q. Available tools: %s, %s, %s.",
			name, ToolWebSearch, ToolCurrentDateTime, ToolFetchURLContent)
	}
}

func (s *Set) invokeSearch(ctx context.Context, query string) string {
	if query == "" {
		return "Web search requires a non-empty query."
	}
	if s.Search == nil {
		s.fail("web search is not configured")
		return "Web search is not available at the moment: not configured."
	}
	log.Printf("web search query: %s", query)
	snippets, err := s.Search.Search(ctx, query)
	if err != nil {
		s.fail("web search unavailable: " + err.Error())
		return "Web search is not available at the moment: " + err.Error()
	}
	if len(snippets) == 0 {
		return "No search results were found for this query."
	}
	var b strings.Builder
	for _, sn := range snippets {
		b.WriteString("- ")
		if sn.Title != "" {
			b.WriteString(sn.Title)
			b.WriteString(": ")
		}
		b.WriteString(sn.Snippet)
		if sn.Link != "" {
			b.WriteString(" (")
			b.WriteString(sn.Link)
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Body text handed back to the model is capped so one page cannot blow up
// the engine context.
const maxFetchedBody = 20000

func (s *Set) invokeFetch(ctx context.Context, rawURL string) string {
	if rawURL == "" {
		return "fetch_url_content requires a url argument."
	}
	if s.Fetch == nil {
		s.fail("url fetch is not configured")
		return "URL fetch is not available at the moment: not configured."
	}
	log.Printf("fetching content from URL: %s", rawURL)
	page, err := s.Fetch.Fetch(ctx, rawURL)
	if err != nil {
		s.fail("url fetch failed: " + err.Error())
		return "Failed to fetch content from URL: " + err.Error()
	}
	if page.Restricted {
		return "This page requires login or sign-in. Private content cannot be analyzed."
	}
	body := page.Body
	if len(body) > maxFetchedBody {
		body = body[:maxFetchedBody]
	}
	if page.Title == "" {
		return body
	}
	return page.Title + "\n\n" + body
}
