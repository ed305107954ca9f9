// cmd/facttrace/search.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// SearchResult is one hit returned by the search collaborator. Any field may be absent.
type SearchResult struct {
	URL           string   `json:"url"`
	Title         string   `json:"title,omitempty"`
	Text          string   `json:"text,omitempty"`
	Content       string   `json:"content,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	Synopsis      string   `json:"synopsis,omitempty"`
	Description   string   `json:"description,omitempty"`
	Highlights    []string `json:"highlights,omitempty"`
	Publisher     string   `json:"publisher,omitempty"`
	Source        string   `json:"source,omitempty"`
	Author        string   `json:"author,omitempty"`
	PublishedDate string   `json:"publishedDate,omitempty"`

	SourceMeta *SourceMeta `json:"-"`
}

// PublisherName returns the publisher, falling back to the source field
func (r SearchResult) PublisherName() string {
	if p := strings.TrimSpace(r.Publisher); p != "" {
		return p
	}
	return strings.TrimSpace(r.Source)
}

// Searcher finds candidate articles for a claim
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// searchRequest is the body sent to the search API
type searchRequest struct {
	Query      string          `json:"query"`
	Category   string          `json:"category"`
	NumResults int             `json:"numResults"`
	Type       string          `json:"type"`
	Contents   *searchContents `json:"contents,omitempty"`
}

type searchContents struct {
	Text       bool              `json:"text"`
	Highlights *searchHighlights `json:"highlights,omitempty"`
}

type searchHighlights struct {
	NumSentences     int `json:"numSentences"`
	HighlightsPerURL int `json:"highlightsPerUrl"`
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}

// SearchClient talks to an Exa-compatible news search endpoint
type SearchClient struct {
	client     *http.Client
	endpoint   string
	apiKey     string
	numResults int
	searchType string
}

// NewSearchClient creates a search client from configuration
func NewSearchClient(cfg *Config) *SearchClient {
	return &SearchClient{
		client:     &http.Client{Timeout: DefaultSearchTimeout},
		endpoint:   cfg.SearchURL,
		apiKey:     cfg.SearchAPIKey,
		numResults: cfg.SearchNumResults,
		searchType: cfg.SearchType,
	}
}

// Search runs a news search. A missing or empty results array is zero results, not an error.
func (sc *SearchClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if sc.apiKey == "" {
		return nil, NewConfigError(ErrConfigMissingKey, "EXA_API_KEY is not configured", nil)
	}

	body, err := json.Marshal(searchRequest{
		Query:      query,
		Category:   DefaultSearchCategory,
		NumResults: sc.numResults,
		Type:       sc.searchType,
		Contents: &searchContents{
			Text:       true,
			Highlights: &searchHighlights{NumSentences: 3, HighlightsPerURL: 3},
		},
	})
	if err != nil {
		return nil, NewError(ErrorTypeInternal, "INTERNAL_001", "failed to encode search request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sc.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, NewUpstreamError(ErrUpstreamSearch, "failed to build search request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", sc.apiKey)

	resp, err := sc.client.Do(req)
	if err != nil {
		return nil, NewUpstreamError(ErrUpstreamSearch, "search request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxPageSize))
	if err != nil {
		return nil, NewUpstreamError(ErrUpstreamSearch, "failed to read search response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, NewUpstreamError(ErrUpstreamSearch, "search API error",
			fmt.Errorf("status %d: %s", resp.StatusCode, upstreamMessage(data)))
	}

	var parsed searchResponse
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &parsed); err != nil {
			return nil, NewUpstreamError(ErrUpstreamSearch, "failed to decode search response", err)
		}
	}
	return parsed.Results, nil
}

// upstreamMessage pulls a human readable message out of an error body
func upstreamMessage(data []byte) string {
	var body struct {
		Error   interface{} `json:"error"`
		Message string      `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		switch e := body.Error.(type) {
		case string:
			if e != "" {
				return e
			}
		case map[string]interface{}:
			if msg, ok := e["message"].(string); ok && msg != "" {
				return msg
			}
		}
	}
	return truncateChars(collapseWhitespace(string(data)), 200)
}
