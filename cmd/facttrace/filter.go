// cmd/facttrace/filter.go
package main

import (
	"fmt"
	"math"
	"net/url"
	"strings"
)

// ReasonNotInDataset is reported when neither the domain nor the publisher is known
const ReasonNotInDataset = "source not in dataset"

// SourceMeta is the outcome of evaluating one candidate source.
// Every metadata field is null when enforcement is disabled or nothing matched.
type SourceMeta struct {
	Acceptable       bool     `json:"acceptable"`
	BiasMean         *float64 `json:"biasMean"`
	BiasLabel        *string  `json:"biasLabel"`
	ReliabilityMean  *float64 `json:"reliabilityMean"`
	ReliabilityLabel *string  `json:"reliabilityLabel"`
	Domain           *string  `json:"domain"`
	Moniker          *string  `json:"moniker"`
	Reason           *string  `json:"reason"`
}

// Candidate is what the filter needs to know about a source
type Candidate struct {
	URL       string
	Publisher string
}

// ReliabilityFilter admits or rejects sources using a ReliabilityIndex
type ReliabilityFilter struct {
	index          *ReliabilityIndex
	maxBias        float64
	minReliability float64
}

// NewReliabilityFilter creates a filter over idx with the given thresholds
func NewReliabilityFilter(idx *ReliabilityIndex, maxBias, minReliability float64) *ReliabilityFilter {
	return &ReliabilityFilter{
		index:          idx,
		maxBias:        maxBias,
		minReliability: minReliability,
	}
}

// Enforcing reports whether the filter has any ground truth to enforce
func (f *ReliabilityFilter) Enforcing() bool {
	return f.index.Size() > 0
}

// Evaluate resolves the candidate against the index. Domain matches take priority
// over publisher-name matches. In non-strict mode every source is reported acceptable,
// but the computed metadata is still returned.
func (f *ReliabilityFilter) Evaluate(c Candidate, strict bool) SourceMeta {
	if !f.Enforcing() {
		return SourceMeta{Acceptable: true}
	}

	rec := f.Match(c)
	if rec == nil {
		return SourceMeta{
			Acceptable: !strict,
			Domain:     stringPtr(hostnameOf(c.URL)),
			Reason:     stringPtr(ReasonNotInDataset),
		}
	}
	return f.MetaFor(rec, strict)
}

// MetaFor applies the thresholds to an already matched record
func (f *ReliabilityFilter) MetaFor(rec *ReliabilityRecord, strict bool) SourceMeta {
	meta := SourceMeta{
		BiasMean:         floatPtr(rec.BiasMean),
		BiasLabel:        stringPtr(rec.BiasLabel),
		ReliabilityMean:  floatPtr(rec.ReliabilityMean),
		ReliabilityLabel: stringPtr(rec.ReliabilityLabel),
		Domain:           stringPtr(rec.Domain),
		Moniker:          stringPtr(rec.Moniker),
	}
	if math.IsNaN(rec.BiasMean) {
		meta.BiasMean = nil
	}
	if math.IsNaN(rec.ReliabilityMean) {
		meta.ReliabilityMean = nil
	}

	admissible, reason := f.admissible(rec)
	meta.Acceptable = admissible || !strict
	if !admissible {
		meta.Reason = stringPtr(reason)
	}
	return meta
}

// Match returns the dataset record for c, trying the URL hostname before the publisher name
func (f *ReliabilityFilter) Match(c Candidate) *ReliabilityRecord {
	if host := hostnameOf(c.URL); host != "" {
		if rec := f.index.FindByDomain(host); rec != nil {
			return rec
		}
	}
	if c.Publisher != "" {
		return f.index.FindByName(c.Publisher)
	}
	return nil
}

// admissible applies the numeric thresholds. Missing scores (NaN) never pass.
func (f *ReliabilityFilter) admissible(rec *ReliabilityRecord) (bool, string) {
	switch {
	case math.IsNaN(rec.BiasMean):
		return false, "bias score unavailable"
	case math.IsNaN(rec.ReliabilityMean):
		return false, "reliability score unavailable"
	case math.Abs(rec.BiasMean) > f.maxBias:
		return false, fmt.Sprintf("bias %.2f exceeds threshold %.2f", rec.BiasMean, f.maxBias)
	case rec.ReliabilityMean < f.minReliability:
		return false, fmt.Sprintf("reliability %.2f below threshold %.2f", rec.ReliabilityMean, f.minReliability)
	}
	return true, ""
}

// FilterResults keeps the results that pass strict evaluation and annotates each with its
// SourceMeta. With an empty index every result is returned unannotated.
func (f *ReliabilityFilter) FilterResults(results []SearchResult) []SearchResult {
	if !f.Enforcing() {
		out := make([]SearchResult, len(results))
		copy(out, results)
		for i := range out {
			out[i].SourceMeta = nil
		}
		return out
	}

	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		meta := f.Evaluate(Candidate{URL: r.URL, Publisher: r.PublisherName()}, true)
		if !meta.Acceptable {
			Logger().Debug("Dropping %s: %s", r.URL, derefString(meta.Reason))
			continue
		}
		r.SourceMeta = &meta
		out = append(out, r)
	}
	return out
}

// hostnameOf extracts the hostname of a URL, tolerating a missing scheme
func hostnameOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return NormalizeDomain(u.Hostname())
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
