// cmd/facttrace/selector.go
package main

import (
	"context"
	"sort"
	"strings"
)

// Article is the search result chosen as evidence, merged with its extracted text
type Article struct {
	Title       string      `json:"title"`
	URL         string      `json:"url"`
	Description string      `json:"description"`
	Publisher   string      `json:"publisher"`
	Snippet     string      `json:"snippet"`
	Reliability *SourceMeta `json:"reliability"`

	ArticleText string `json:"-"`
}

// ArticleSelector picks the first search result with enough readable text
type ArticleSelector struct {
	fetcher PageFetcher
}

// NewArticleSelector creates a selector that falls back to fetcher for short results
func NewArticleSelector(fetcher PageFetcher) *ArticleSelector {
	return &ArticleSelector{fetcher: fetcher}
}

// PickArticle returns the first result, preferred domain first, whose text exceeds
// MinUsableLength. If none does it returns the first sorted result with a truncated
// summary. It returns nil only for an empty result set.
func (s *ArticleSelector) PickArticle(ctx context.Context, results []SearchResult, preferredDomain string) *Article {
	if len(results) == 0 {
		return nil
	}

	ordered := make([]SearchResult, len(results))
	copy(ordered, results)

	preferred := NormalizeDomain(preferredDomain)
	if preferred != "" {
		sort.SliceStable(ordered, func(i, j int) bool {
			return hostnameOf(ordered[i].URL) == preferred && hostnameOf(ordered[j].URL) != preferred
		})
	}

	for _, r := range ordered {
		if ctx.Err() != nil {
			break
		}
		text, title := s.articleText(ctx, r)
		if charCount(text) > MinUsableLength {
			if r.Title == "" {
				r.Title = title
			}
			return newArticle(r, text)
		}
	}

	first := ordered[0]
	Logger().Info("No candidate reached %d characters, falling back to %s", MinUsableLength, first.URL)
	return newArticle(first, truncateChars(fallbackText(first), FallbackTextLimit))
}

// articleText returns the text to use for r and any page title found while fetching.
// Fetch failures are logged and the short combined text is used instead.
func (s *ArticleSelector) articleText(ctx context.Context, r SearchResult) (string, string) {
	combined := combinedText(r)
	if charCount(combined) > MinContentLength {
		return combined, ""
	}
	if r.URL == "" || s.fetcher == nil {
		return combined, ""
	}

	page, err := s.fetcher.FetchHTML(ctx, r.URL)
	if err != nil {
		Logger().Warning("Failed to fetch %s: %v", r.URL, err)
		return combined, ""
	}

	text := ToPlainText(page)
	if text == "" {
		Logger().Debug("No readable text extracted from %s", r.URL)
		return combined, ""
	}
	return text, ExtractTitle(page)
}

// combinedText joins every text-bearing field with blank lines and normalizes whitespace
func combinedText(r SearchResult) string {
	parts := make([]string, 0, 6)
	for _, p := range []string{r.Text, r.Content, r.Summary, r.Synopsis, r.Description} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	if h := strings.Join(r.Highlights, " "); strings.TrimSpace(h) != "" {
		parts = append(parts, h)
	}
	return collapseWhitespace(strings.Join(parts, "\n\n"))
}

// fallbackText is the first non-empty summary-like field
func fallbackText(r SearchResult) string {
	for _, p := range []string{r.Summary, r.Text, r.Content, r.Synopsis, r.Description, strings.Join(r.Highlights, " ")} {
		if t := collapseWhitespace(p); t != "" {
			return t
		}
	}
	return ""
}

func newArticle(r SearchResult, text string) *Article {
	description := collapseWhitespace(r.Description)
	if description == "" {
		description = collapseWhitespace(r.Summary)
	}
	return &Article{
		Title:       collapseWhitespace(r.Title),
		URL:         r.URL,
		Description: description,
		Publisher:   r.PublisherName(),
		Snippet:     truncateChars(text, SnippetLength),
		Reliability: r.SourceMeta,
		ArticleText: text,
	}
}
