package tools

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Snippet is one web search result.
type Snippet struct {
	Title   string
	Link    string
	Snippet string
}

type Searcher interface {
	Search(ctx context.Context, query string) ([]Snippet, error)
}

// SearchUnavailableError distinguishes "the search service is broken"
// (quota, auth, network) from "search found nothing", which is a plain
// empty result set.
type SearchUnavailableError struct {
	Reason string
}

func (e *SearchUnavailableError) Error() string { return e.Reason }

// GoogleSearch queries the Google Custom Search JSON API.
type GoogleSearch struct {
	APIKey   string
	EngineID string
}

func NewGoogleSearch(apiKey, engineID string) *GoogleSearch {
	return &GoogleSearch{APIKey: apiKey, EngineID: engineID}
}

func (g *GoogleSearch) Search(ctx context.Context, query string) ([]Snippet, error) {
	if g.APIKey == "" || g.EngineID == "" {
		return nil, &SearchUnavailableError{Reason: "custom search credentials are not configured"}
	}
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(g.APIKey))
	if err != nil {
		return nil, &SearchUnavailableError{Reason: "search client: " + err.Error()}
	}
	resp, err := svc.Cse.List().Cx(g.EngineID).Q(query).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			switch gerr.Code {
			case 403:
				return nil, &SearchUnavailableError{
					Reason: "403 Forbidden. Check that the Custom Search API is enabled and the API key is valid",
				}
			case 429:
				return nil, &SearchUnavailableError{Reason: "search quota exhausted (429)"}
			default:
				return nil, &SearchUnavailableError{Reason: fmt.Sprintf("search request failed (%d)", gerr.Code)}
			}
		}
		return nil, &SearchUnavailableError{Reason: "search request failed: " + err.Error()}
	}

	var out []Snippet
	for _, item := range resp.Items {
		if item == nil || item.Snippet == "" {
			continue
		}
		out = append(out, Snippet{Title: item.Title, Link: item.Link, Snippet: item.Snippet})
	}
	return out, nil
}
