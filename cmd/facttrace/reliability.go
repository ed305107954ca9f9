// cmd/facttrace/reliability.go
package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Dataset column names
const (
	ColumnDomain           = "domain"
	ColumnMoniker          = "moniker_name"
	ColumnBiasMean         = "bias_mean"
	ColumnBiasLabel        = "bias_label"
	ColumnReliabilityMean  = "reliability_mean"
	ColumnReliabilityLabel = "reliability_label"
)

// ReliabilityRecord is one outlet's row in the bias/reliability dataset
type ReliabilityRecord struct {
	Domain           string  `json:"domain"`
	Moniker          string  `json:"moniker"`
	BiasMean         float64 `json:"biasMean"`
	BiasLabel        string  `json:"biasLabel"`
	ReliabilityMean  float64 `json:"reliabilityMean"`
	ReliabilityLabel string  `json:"reliabilityLabel"`
}

// ReliabilityIndex is a read-only lookup table over the dataset.
// It is never mutated after construction and is safe for concurrent readers.
type ReliabilityIndex struct {
	byDomain map[string]*ReliabilityRecord
	byName   map[string]*ReliabilityRecord
	size     int
}

// NewReliabilityIndex builds an index from already parsed records.
// Later records win on domain and name collisions.
func NewReliabilityIndex(records []ReliabilityRecord) *ReliabilityIndex {
	idx := &ReliabilityIndex{
		byDomain: make(map[string]*ReliabilityRecord, len(records)),
		byName:   make(map[string]*ReliabilityRecord, len(records)),
	}

	for i := range records {
		rec := records[i]
		rec.Domain = NormalizeDomain(rec.Domain)

		if rec.Domain != "" {
			idx.byDomain[rec.Domain] = &rec
		}
		if name := NormalizeName(rec.Moniker); name != "" {
			idx.byName[name] = &rec
		}
	}

	seen := make(map[*ReliabilityRecord]struct{}, len(idx.byDomain))
	for _, rec := range idx.byDomain {
		seen[rec] = struct{}{}
	}
	for _, rec := range idx.byName {
		seen[rec] = struct{}{}
	}
	idx.size = len(seen)
	return idx
}

// LoadReliabilityIndex reads the dataset at path. It fails soft: on any error the
// returned index is empty (never nil) and the error says why.
func LoadReliabilityIndex(path string) (*ReliabilityIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return NewReliabilityIndex(nil), NewDatasetError(ErrDatasetLoad, fmt.Sprintf("failed to open dataset %s", path), err)
	}
	defer f.Close()

	return ParseReliabilityIndex(f)
}

// ParseReliabilityIndex parses CSV dataset content. Columns are resolved by header name.
func ParseReliabilityIndex(r io.Reader) (*ReliabilityIndex, error) {
	records, err := parseReliabilityRecords(r)
	if err != nil {
		return NewReliabilityIndex(nil), err
	}
	return NewReliabilityIndex(records), nil
}

func parseReliabilityRecords(r io.Reader) ([]ReliabilityRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, NewDatasetError(ErrDatasetLoad, "failed to read dataset header", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns[ColumnDomain]; !ok {
		if _, ok := columns[ColumnMoniker]; !ok {
			return nil, NewDatasetError(ErrDatasetHeader,
				fmt.Sprintf("dataset header has neither %q nor %q column", ColumnDomain, ColumnMoniker), nil)
		}
	}

	field := func(row []string, column string) string {
		i, ok := columns[column]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []ReliabilityRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, NewDatasetError(ErrDatasetLoad, fmt.Sprintf("malformed dataset row %d", line), err)
			}
			return nil, NewDatasetError(ErrDatasetLoad, "failed to read dataset", err)
		}

		rec := ReliabilityRecord{
			Domain:           field(row, ColumnDomain),
			Moniker:          field(row, ColumnMoniker),
			BiasMean:         parseScore(field(row, ColumnBiasMean)),
			BiasLabel:        field(row, ColumnBiasLabel),
			ReliabilityMean:  parseScore(field(row, ColumnReliabilityMean)),
			ReliabilityLabel: field(row, ColumnReliabilityLabel),
		}
		if rec.Domain == "" && rec.Moniker == "" {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// parseScore returns NaN for empty or unparseable values so they never pass a threshold
func parseScore(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// NormalizeDomain trims, lowercases and strips leading dots, a trailing dot and any port
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimLeft(d, ".")
	d = strings.TrimRight(d, ".")
	if i := strings.LastIndexByte(d, ':'); i >= 0 && !strings.Contains(d[i+1:], ".") {
		d = d[:i]
	}
	return strings.TrimSpace(d)
}

// NormalizeName folds a publisher name to lowercase letters and digits only.
// Accents are decomposed first so "Público" matches "publico".
func NormalizeName(name string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(name) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FindByDomain looks up hostname, widening one label at a time
// ("news.example.com" then "example.com") until no dot remains.
func (idx *ReliabilityIndex) FindByDomain(hostname string) *ReliabilityRecord {
	if idx == nil {
		return nil
	}
	candidate := NormalizeDomain(hostname)
	for candidate != "" {
		if rec, ok := idx.byDomain[candidate]; ok {
			return rec
		}
		dot := strings.IndexByte(candidate, '.')
		if dot < 0 {
			return nil
		}
		candidate = candidate[dot+1:]
		if !strings.Contains(candidate, ".") {
			return nil
		}
	}
	return nil
}

// FindByName matches a publisher name exactly after normalization
func (idx *ReliabilityIndex) FindByName(name string) *ReliabilityRecord {
	if idx == nil {
		return nil
	}
	key := NormalizeName(name)
	if key == "" {
		return nil
	}
	return idx.byName[key]
}

// Size returns the number of distinct records reachable by domain or name.
// Zero means enforcement is disabled.
func (idx *ReliabilityIndex) Size() int {
	if idx == nil {
		return 0
	}
	return idx.size
}
