package main

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// stubFetcher serves canned pages by URL and counts calls
type stubFetcher struct {
	pages map[string]string
	calls []string
}

func (s *stubFetcher) FetchHTML(ctx context.Context, rawURL string) (string, error) {
	s.calls = append(s.calls, rawURL)
	if page, ok := s.pages[rawURL]; ok {
		return page, nil
	}
	return "", errors.New("unreachable")
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("x ", n/2))
}

func TestPickArticleLongTextNeedsNoFetch(t *testing.T) {
	fetcher := &stubFetcher{}
	s := NewArticleSelector(fetcher)

	long := strings.Repeat("b", 650)
	results := []SearchResult{
		{URL: "https://a.test/1", Text: strings.Repeat("a", 50)},
		{URL: "https://b.test/2", Text: long, Title: "B"},
	}

	// A's short text triggers a fetch that fails; B is then accepted as is
	got := s.PickArticle(context.Background(), results, "")
	if got == nil {
		t.Fatal("expected an article")
	}
	if got.URL != "https://b.test/2" || got.ArticleText != long {
		t.Errorf("got %s with %d chars, want B", got.URL, len(got.ArticleText))
	}
	for _, u := range fetcher.calls {
		if u == "https://b.test/2" {
			t.Error("B should not be fetched")
		}
	}
}

func TestPickArticlePreferredDomainFirst(t *testing.T) {
	fetcher := &stubFetcher{}
	s := NewArticleSelector(fetcher)

	results := []SearchResult{
		{URL: "https://other.test/1", Text: strings.Repeat("o", 700)},
		{URL: "https://apnews.com/2", Text: strings.Repeat("p", 700)},
		{URL: "https://www.apnews.com/3", Text: strings.Repeat("w", 700)},
	}

	got := s.PickArticle(context.Background(), results, "apnews.com")
	if got == nil || got.URL != "https://apnews.com/2" {
		t.Fatalf("got %+v, want the exact preferred hostname", got)
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("unexpected fetches: %v", fetcher.calls)
	}
}

func TestPickArticleFetchesShortResults(t *testing.T) {
	page := "<html><head><title>Fetched Title</title></head><body><p>" + words(900) + "</p></body></html>"
	fetcher := &stubFetcher{pages: map[string]string{"https://a.test/1": page}}
	s := NewArticleSelector(fetcher)

	results := []SearchResult{{URL: "https://a.test/1", Summary: "short"}}

	got := s.PickArticle(context.Background(), results, "")
	if got == nil {
		t.Fatal("expected an article")
	}
	if charCount(got.ArticleText) <= MinUsableLength {
		t.Errorf("ArticleText has %d chars, want fetched page text", charCount(got.ArticleText))
	}
	if got.Title != "Fetched Title" {
		t.Errorf("Title = %q, want page title", got.Title)
	}
	if charCount(got.Snippet) > SnippetLength {
		t.Errorf("Snippet has %d chars", charCount(got.Snippet))
	}
}

func TestPickArticleFallsBackToFirstCandidate(t *testing.T) {
	fetcher := &stubFetcher{}
	s := NewArticleSelector(fetcher)

	results := []SearchResult{
		{URL: "https://a.test/1", Summary: "first summary", Text: "first text"},
		{URL: "https://b.test/2", Summary: strings.Repeat("longer ", 40)},
	}

	got := s.PickArticle(context.Background(), results, "")
	if got == nil {
		t.Fatal("PickArticle returned nil for non-empty input")
	}
	if got.URL != "https://a.test/1" {
		t.Errorf("URL = %s, want the first candidate", got.URL)
	}
	if got.ArticleText != "first summary" {
		t.Errorf("ArticleText = %q, want first candidate's summary", got.ArticleText)
	}
	if len(fetcher.calls) != 2 {
		t.Errorf("fetch calls = %v, want one per candidate", fetcher.calls)
	}
}

func TestPickArticleFallbackWithoutURL(t *testing.T) {
	s := NewArticleSelector(&stubFetcher{})

	results := []SearchResult{{URL: "", Summary: strings.Repeat("s", 300)}}
	got := s.PickArticle(context.Background(), results, "")
	if got == nil || got.ArticleText != strings.Repeat("s", 300) {
		t.Fatalf("unexpected fallback: %+v", got)
	}

	results = []SearchResult{{Summary: strings.Repeat("s", 350), Text: strings.Repeat("t", 20)}}
	got = s.PickArticle(context.Background(), results, "")
	if got == nil || got.ArticleText != strings.Repeat("s", 350) {
		t.Fatalf("fallback should prefer the summary, got %+v", got)
	}
}

func TestPickArticleEmpty(t *testing.T) {
	s := NewArticleSelector(&stubFetcher{})
	if got := s.PickArticle(context.Background(), nil, "apnews.com"); got != nil {
		t.Errorf("PickArticle(nil) = %+v, want nil", got)
	}
}

func TestCombinedText(t *testing.T) {
	r := SearchResult{
		Text:       " one ",
		Summary:    "two\n\nthree",
		Highlights: []string{"four", "five"},
	}
	if got := combinedText(r); got != "one two three four five" {
		t.Errorf("combinedText = %q", got)
	}
}

func TestFallbackTextLimit(t *testing.T) {
	r := SearchResult{Summary: strings.Repeat("é", 1000)}
	if got := charCount(truncateChars(fallbackText(r), FallbackTextLimit)); got != FallbackTextLimit {
		t.Errorf("fallback length = %d, want %d", got, FallbackTextLimit)
	}
}

func TestPickArticleFetchesAtExactlyContentLength(t *testing.T) {
	page := "<html><body><p>" + strings.Repeat("f", 700) + "</p></body></html>"
	fetcher := &stubFetcher{pages: map[string]string{"https://a.test/1": page}}
	s := NewArticleSelector(fetcher)

	results := []SearchResult{{URL: "https://a.test/1", Text: strings.Repeat("a", MinContentLength)}}

	got := s.PickArticle(context.Background(), results, "")
	if len(fetcher.calls) != 1 {
		t.Fatalf("fetch calls = %v, want one fetch for %d chars", fetcher.calls, MinContentLength)
	}
	if got == nil || got.ArticleText != strings.Repeat("f", 700) {
		t.Errorf("expected the fetched page text, got %+v", got)
	}
}

func TestPickArticleRejectsExactlyUsableLength(t *testing.T) {
	s := NewArticleSelector(&stubFetcher{})

	results := []SearchResult{
		{Title: "A", Text: strings.Repeat("a", MinUsableLength)},
		{Title: "B", Text: strings.Repeat("b", MinUsableLength+1)},
	}
	got := s.PickArticle(context.Background(), results, "")
	if got == nil || got.Title != "B" {
		t.Fatalf("got %+v, want B with %d chars", got, MinUsableLength+1)
	}

	got = s.PickArticle(context.Background(), results[:1], "")
	if got == nil || got.Title != "A" || got.ArticleText != strings.Repeat("a", MinUsableLength) {
		t.Errorf("expected fallback to A, got %+v", got)
	}
}
