package main

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleDataset = `domain,moniker_name,bias_mean,bias_label,reliability_mean,reliability_label
apnews.com,Associated Press,-1.2,Neutral,47.5,Reliable
example.com,"Example, ""Daily"" News",3.0,Skews Right,40.1,Generally Reliable
partisan.example.org,Partisan Post,-22.4,Hyper-Partisan Left,18.0,Unreliable
,Le Público,0.5,Neutral,41.0,Reliable
nodata.net,No Data,,,,
`

func mustParse(t *testing.T, data string) *ReliabilityIndex {
	t.Helper()
	idx, err := ParseReliabilityIndex(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseReliabilityIndex: %v", err)
	}
	return idx
}

func TestParseReliabilityIndex(t *testing.T) {
	idx := mustParse(t, sampleDataset)

	if got := idx.Size(); got != 5 {
		t.Fatalf("Size() = %d, want 5", got)
	}

	rec := idx.FindByDomain("apnews.com")
	if rec == nil {
		t.Fatal("apnews.com not found")
	}
	if rec.Moniker != "Associated Press" || rec.BiasMean != -1.2 || rec.ReliabilityMean != 47.5 {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestParseQuotedField(t *testing.T) {
	idx := mustParse(t, "domain,moniker_name\nx.com,\"a,b\"\"c\"\n")

	rec := idx.FindByDomain("x.com")
	if rec == nil {
		t.Fatal("x.com not found")
	}
	if rec.Moniker != `a,b"c` {
		t.Errorf("Moniker = %q, want %q", rec.Moniker, `a,b"c`)
	}
}

func TestParseHeaderWithBOMAndOrder(t *testing.T) {
	data := "\ufeffReliability_Mean,Domain,Bias_Mean\n42,bom.example,1\n"
	idx := mustParse(t, data)

	rec := idx.FindByDomain("bom.example")
	if rec == nil {
		t.Fatal("bom.example not found")
	}
	if rec.ReliabilityMean != 42 || rec.BiasMean != 1 {
		t.Errorf("unexpected scores: %+v", rec)
	}
}

func TestParseMissingScoresAreNaN(t *testing.T) {
	idx := mustParse(t, sampleDataset)

	rec := idx.FindByDomain("nodata.net")
	if rec == nil {
		t.Fatal("nodata.net not found")
	}
	if !math.IsNaN(rec.BiasMean) || !math.IsNaN(rec.ReliabilityMean) {
		t.Errorf("expected NaN scores, got bias=%v reliability=%v", rec.BiasMean, rec.ReliabilityMean)
	}
}

func TestParseBadHeader(t *testing.T) {
	idx, err := ParseReliabilityIndex(strings.NewReader("foo,bar\n1,2\n"))
	if err == nil {
		t.Fatal("expected error for header without domain or moniker column")
	}
	if !IsErrorType(err, ErrorTypeDataset) {
		t.Errorf("expected dataset error, got %v", err)
	}
	if idx == nil || idx.Size() != 0 {
		t.Error("expected empty non-nil index on error")
	}
}

func TestParseEmptyInput(t *testing.T) {
	idx := mustParse(t, "")
	if idx.Size() != 0 {
		t.Errorf("Size() = %d, want 0", idx.Size())
	}
}

func TestLoadReliabilityIndexMissingFile(t *testing.T) {
	idx, err := LoadReliabilityIndex(filepath.Join(t.TempDir(), "missing.csv"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if idx == nil || idx.Size() != 0 {
		t.Error("expected empty non-nil index for missing file")
	}
}

func TestLoadReliabilityIndexFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reliability.csv")
	if err := os.WriteFile(path, []byte(sampleDataset), 0644); err != nil {
		t.Fatal(err)
	}

	idx, err := LoadReliabilityIndex(path)
	if err != nil {
		t.Fatalf("LoadReliabilityIndex: %v", err)
	}
	if idx.Size() != 5 {
		t.Errorf("Size() = %d, want 5", idx.Size())
	}
}

func TestFindByDomainWidening(t *testing.T) {
	idx := mustParse(t, sampleDataset)

	tests := []struct {
		host string
		want string
	}{
		{"news.example.com", "example.com"},
		{"a.b.example.com", "example.com"},
		{"EXAMPLE.COM.", "example.com"},
		{"example.com:8080", "example.com"},
		{"partisan.example.org", "partisan.example.org"},
		{"example.org", ""},
		{"com", ""},
		{"", ""},
	}

	for _, tt := range tests {
		rec := idx.FindByDomain(tt.host)
		got := ""
		if rec != nil {
			got = rec.Domain
		}
		if got != tt.want {
			t.Errorf("FindByDomain(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}

func TestFindByName(t *testing.T) {
	idx := mustParse(t, sampleDataset)

	tests := []struct {
		name string
		want bool
	}{
		{"Associated Press", true},
		{"associated-press", true},
		{"ASSOCIATED  PRESS!", true},
		{"Le Publico", true},
		{"le público", true},
		{"Associated", false},
		{"", false},
		{"!!!", false},
	}

	for _, tt := range tests {
		if got := idx.FindByName(tt.name) != nil; got != tt.want {
			t.Errorf("FindByName(%q) found = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestLastRecordWins(t *testing.T) {
	data := "domain,moniker_name,reliability_mean\ndup.com,First,10\ndup.com,Second,20\n"
	idx := mustParse(t, data)

	rec := idx.FindByDomain("dup.com")
	if rec == nil || rec.Moniker != "Second" {
		t.Fatalf("expected later record to win, got %+v", rec)
	}
	if idx.Size() != 2 {
		t.Errorf("Size() = %d, want 2 (First is still reachable by name)", idx.Size())
	}
}

func TestNilIndex(t *testing.T) {
	var idx *ReliabilityIndex
	if idx.Size() != 0 || idx.FindByDomain("x.com") != nil || idx.FindByName("x") != nil {
		t.Error("nil index should behave as empty")
	}
}

func TestNormalizeDomain(t *testing.T) {
	tests := map[string]string{
		" News.Example.COM ": "news.example.com",
		".example.com.":      "example.com",
		"example.com:443":    "example.com",
		"":                   "",
	}
	for in, want := range tests {
		if got := NormalizeDomain(in); got != want {
			t.Errorf("NormalizeDomain(%q) = %q, want %q", in, got, want)
		}
	}
}
