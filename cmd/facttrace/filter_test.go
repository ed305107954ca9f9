package main

import (
	"testing"
)

func newTestFilter(t *testing.T) *ReliabilityFilter {
	t.Helper()
	return NewReliabilityFilter(mustParse(t, sampleDataset), DefaultMaxBiasThreshold, DefaultMinReliabilityThreshold)
}

func TestEvaluateEmptyIndexAcceptsEverything(t *testing.T) {
	f := NewReliabilityFilter(NewReliabilityIndex(nil), DefaultMaxBiasThreshold, DefaultMinReliabilityThreshold)

	inputs := []Candidate{
		{URL: "https://partisan.example.org/story"},
		{URL: "https://unknown.test/a", Publisher: "Nobody"},
		{},
	}
	for _, c := range inputs {
		for _, strict := range []bool{true, false} {
			meta := f.Evaluate(c, strict)
			if !meta.Acceptable {
				t.Errorf("Evaluate(%+v, %v) not acceptable on empty index", c, strict)
			}
			if meta.Domain != nil || meta.Reason != nil || meta.BiasMean != nil {
				t.Errorf("expected null metadata on empty index, got %+v", meta)
			}
		}
	}
}

func TestEvaluateUnmatched(t *testing.T) {
	f := newTestFilter(t)
	c := Candidate{URL: "https://www.unknown.test/path"}

	strict := f.Evaluate(c, true)
	if strict.Acceptable {
		t.Error("strict evaluation of unmatched source should be rejected")
	}
	if derefString(strict.Reason) != ReasonNotInDataset {
		t.Errorf("Reason = %q, want %q", derefString(strict.Reason), ReasonNotInDataset)
	}
	if derefString(strict.Domain) != "www.unknown.test" {
		t.Errorf("Domain = %q, want hostname", derefString(strict.Domain))
	}

	lenient := f.Evaluate(c, false)
	if !lenient.Acceptable {
		t.Error("non-strict evaluation should always be acceptable")
	}
}

func TestEvaluateThresholds(t *testing.T) {
	f := newTestFilter(t)

	tests := []struct {
		name       string
		candidate  Candidate
		acceptable bool
	}{
		{"reliable domain", Candidate{URL: "https://apnews.com/article/x"}, true},
		{"subdomain widening", Candidate{URL: "https://news.example.com/x"}, true},
		{"too partisan", Candidate{URL: "https://partisan.example.org/x"}, false},
		{"missing scores", Candidate{URL: "https://nodata.net/x"}, false},
		{"matched by publisher", Candidate{URL: "https://elpublico.test/x", Publisher: "Le Público"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := f.Evaluate(tt.candidate, true)
			if meta.Acceptable != tt.acceptable {
				t.Errorf("Acceptable = %v, want %v (reason %q)", meta.Acceptable, tt.acceptable, derefString(meta.Reason))
			}
			if !tt.acceptable && meta.Reason == nil {
				t.Error("rejected source should carry a reason")
			}
			if !f.Evaluate(tt.candidate, false).Acceptable {
				t.Error("non-strict evaluation should always be acceptable")
			}
		})
	}
}

func TestEvaluateNonStrictKeepsMetadata(t *testing.T) {
	f := newTestFilter(t)

	meta := f.Evaluate(Candidate{URL: "https://partisan.example.org/x"}, false)
	if !meta.Acceptable {
		t.Fatal("non-strict evaluation should be acceptable")
	}
	if meta.BiasMean == nil || *meta.BiasMean != -22.4 {
		t.Errorf("BiasMean = %v, want -22.4", meta.BiasMean)
	}
	if derefString(meta.Moniker) != "Partisan Post" {
		t.Errorf("Moniker = %q", derefString(meta.Moniker))
	}
	if meta.Reason == nil {
		t.Error("reason should still explain the failed threshold")
	}
}

func TestEvaluateDomainBeatsPublisher(t *testing.T) {
	f := newTestFilter(t)

	meta := f.Evaluate(Candidate{URL: "https://apnews.com/x", Publisher: "Partisan Post"}, true)
	if derefString(meta.Moniker) != "Associated Press" {
		t.Errorf("Moniker = %q, want domain match to win", derefString(meta.Moniker))
	}
}

func TestFilterResults(t *testing.T) {
	f := newTestFilter(t)

	results := []SearchResult{
		{URL: "https://partisan.example.org/1"},
		{URL: "https://apnews.com/2"},
		{URL: "https://unknown.test/3"},
		{URL: "https://news.example.com/4"},
	}

	got := f.FilterResults(results)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].URL != "https://apnews.com/2" || got[1].URL != "https://news.example.com/4" {
		t.Errorf("unexpected order: %s, %s", got[0].URL, got[1].URL)
	}
	for _, r := range got {
		if r.SourceMeta == nil || !r.SourceMeta.Acceptable {
			t.Errorf("%s should be annotated as acceptable", r.URL)
		}
	}
	if results[1].SourceMeta != nil {
		t.Error("input slice should not be modified")
	}
}

func TestFilterResultsEmptyIndex(t *testing.T) {
	f := NewReliabilityFilter(NewReliabilityIndex(nil), DefaultMaxBiasThreshold, DefaultMinReliabilityThreshold)

	results := []SearchResult{{URL: "https://a.test"}, {URL: "https://b.test"}}
	got := f.FilterResults(results)
	if len(got) != len(results) {
		t.Fatalf("len = %d, want %d", len(got), len(results))
	}
	for _, r := range got {
		if r.SourceMeta != nil {
			t.Errorf("%s should not be annotated", r.URL)
		}
	}
}

func TestHostnameOf(t *testing.T) {
	tests := map[string]string{
		"https://News.Example.com:443/a?b=c": "news.example.com",
		"example.com/path":                   "example.com",
		"":                                   "",
	}
	for in, want := range tests {
		if got := hostnameOf(in); got != want {
			t.Errorf("hostnameOf(%q) = %q, want %q", in, got, want)
		}
	}
}
