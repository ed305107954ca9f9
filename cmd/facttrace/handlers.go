// cmd/facttrace/handlers.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

// Analyzer judges a claim against one article
type Analyzer interface {
	Analyze(ctx context.Context, in AnalysisInput) (*AnalysisResult, error)
}

// Server wires the pipeline stages to the HTTP API
type Server struct {
	cfg      *Config
	index    *ReliabilityIndex
	filter   *ReliabilityFilter
	fetcher  PageFetcher
	selector *ArticleSelector
	searcher Searcher
	analyzer Analyzer
	monitor  *HealthMonitor
	limiter  *rate.Limiter
	now      func() time.Time
}

// NewServer creates a server over an already loaded index and its collaborators
func NewServer(cfg *Config, idx *ReliabilityIndex, searcher Searcher, fetcher PageFetcher, analyzer Analyzer, monitor *HealthMonitor) *Server {
	if monitor == nil {
		monitor = NewHealthMonitor(idx)
	}
	return &Server{
		cfg:      cfg,
		index:    idx,
		filter:   NewReliabilityFilter(idx, cfg.MaxBiasThreshold, cfg.MinReliabilityThreshold),
		fetcher:  fetcher,
		selector: NewArticleSelector(fetcher),
		searcher: searcher,
		analyzer: analyzer,
		monitor:  monitor,
		limiter:  newRateLimiter(cfg.RateLimitPerMinute),
		now:      time.Now,
	}
}

// Router builds the HTTP routes
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithHTTPError(w, http.StatusNotFound, "Not found.")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithHTTPError(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	router.Use(requestIDMiddleware, s.accessLogMiddleware, recoveryMiddleware)

	router.Handle(APIPathHealth, s.corsMiddleware(http.HandlerFunc(s.handleHealth))).Methods(http.MethodGet, http.MethodOptions)

	// CORS lives on the subrouter: method discovery only sees leaf routes
	api := router.PathPrefix("/api").Subrouter()
	api.Use(mux.CORSMethodMiddleware(api), s.corsMiddleware, s.rateLimitMiddleware, s.bodyLimitMiddleware)
	api.HandleFunc(APIPathAnalyze, s.handleAnalyze).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc(APIPathAnalyzeURL, s.handleAnalyzeURL).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc(APIPathSources, s.handleSources).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc(APIPathStatus, s.handleStatus).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc(APIPathHealth, s.handleHealth).Methods(http.MethodGet, http.MethodOptions)

	if dir := s.cfg.StaticDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			router.PathPrefix("/").Handler(http.FileServer(http.Dir(dir))).Methods(http.MethodGet, http.MethodHead)
		} else {
			Logger().Debug("Static directory %s not found, front-end disabled", dir)
		}
	}

	return router
}

type analyzeRequest struct {
	Query string `json:"query"`
}

type analyzeURLRequest struct {
	URL   string `json:"url"`
	Claim string `json:"claim"`
}

type analyzeResponse struct {
	Query           string          `json:"query"`
	NormalizedClaim string          `json:"normalizedClaim"`
	AnalyzedAt      time.Time       `json:"analyzedAt"`
	Article         *Article        `json:"article"`
	Analysis        *AnalysisResult `json:"analysis"`
}

// handleHealth is the liveness probe
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ok":   true,
		"time": s.now().UTC().Format(time.RFC3339),
	})
}

// handleAnalyze runs the search, filter, select and analyze stages for a free-text claim
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		s.fail(w, r, "analyze", NewValidationError(ErrValidationRequest, ErrMsgEmptyQuery))
		return
	}
	if containsURL(query) {
		s.fail(w, r, "analyze", NewValidationError(ErrValidationRequest, ErrMsgURLInQuery))
		return
	}

	// "?" or "..." normalize to nothing
	claim := NormalizeClaim(query)
	if claim == "" {
		s.fail(w, r, "analyze", NewValidationError(ErrValidationRequest, ErrMsgEmptyQuery))
		return
	}
	ctx := r.Context()

	results, err := s.searcher.Search(ctx, claim)
	if err != nil {
		s.fail(w, r, "search", err)
		return
	}
	if len(results) == 0 {
		respondWithHTTPError(w, http.StatusNotFound, ErrMsgNoArticles)
		return
	}

	admissible := s.filter.FilterResults(results)
	if len(admissible) == 0 {
		Logger().Info("All %d search results rejected by reliability filter [%s]", len(results), RequestIDFrom(ctx))
		respondWithHTTPError(w, http.StatusNotFound, ErrMsgNoArticles)
		return
	}

	article := s.selector.PickArticle(ctx, admissible, s.cfg.PreferredDomain)
	if article == nil {
		respondWithHTTPError(w, http.StatusNotFound, ErrMsgNoArticles)
		return
	}
	if strings.TrimSpace(article.ArticleText) == "" {
		s.fail(w, r, "extract", NewExtractionError(ErrExtractEmpty, ErrMsgNoArticleText, nil))
		return
	}

	analysis, err := s.analyzer.Analyze(ctx, AnalysisInput{
		Claim:        claim,
		ArticleText:  article.ArticleText,
		ArticleTitle: article.Title,
		ArticleURL:   article.URL,
		SourceMeta:   article.Reliability,
	})
	if err != nil {
		s.fail(w, r, "analysis", err)
		return
	}

	s.monitor.RecordAnalysis()
	respondWithJSON(w, http.StatusOK, analyzeResponse{
		Query:           query,
		NormalizedClaim: claim,
		AnalyzedAt:      s.now().UTC(),
		Article:         article,
		Analysis:        analysis,
	})
}

// handleAnalyzeURL analyzes one page given directly by URL. The page's source
// must pass strict reliability evaluation before anything is fetched.
func (s *Server) handleAnalyzeURL(w http.ResponseWriter, r *http.Request) {
	var req analyzeURLRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" {
		s.fail(w, r, "analyze-url", NewValidationError(ErrValidationRequest, "URL is required."))
		return
	}
	if _, err := parseHTTPURL(rawURL); err != nil {
		s.fail(w, r, "analyze-url", NewValidationError(ErrValidationRequest, "A valid http(s) URL is required."))
		return
	}

	var reliability *SourceMeta
	if s.filter.Enforcing() {
		meta := s.filter.Evaluate(Candidate{URL: rawURL}, true)
		if !meta.Acceptable {
			rejected := NewValidationError(ErrValidationSource, ErrMsgSourceRejected)
			Logger().Info("analyze-url rejected %s [%s]: %s", rawURL, RequestIDFrom(r.Context()), derefString(meta.Reason))
			respondWithJSON(w, StatusFor(rejected), map[string]interface{}{
				"error":       ClientMessage(rejected),
				"reason":      derefString(meta.Reason),
				"reliability": meta,
			})
			return
		}
		reliability = &meta
	}

	ctx := r.Context()
	page, err := s.fetcher.FetchHTML(ctx, rawURL)
	if err != nil {
		if !IsErrorType(err, ErrorTypeFetch) {
			err = NewFetchError(ErrFetchExhausted, "failed to fetch page", err)
		}
		s.fail(w, r, "fetch", err)
		return
	}

	text := ToPlainText(page)
	if text == "" {
		s.fail(w, r, "extract", NewExtractionError(ErrExtractEmpty, ErrMsgNoArticleText, nil))
		return
	}
	title := ExtractTitle(page)

	query := strings.TrimSpace(req.Claim)
	if query == "" {
		query = title
	}
	claim := NormalizeClaim(query)
	if claim == "" {
		s.fail(w, r, "analyze-url", NewValidationError(ErrValidationRequest, "A claim is required when the page has no title."))
		return
	}

	publisher := hostnameOf(rawURL)
	if reliability != nil && reliability.Moniker != nil {
		publisher = *reliability.Moniker
	}
	article := &Article{
		Title:       title,
		URL:         rawURL,
		Publisher:   publisher,
		Snippet:     truncateChars(text, SnippetLength),
		Reliability: reliability,
		ArticleText: text,
	}

	analysis, err := s.analyzer.Analyze(ctx, AnalysisInput{
		Claim:        claim,
		ArticleText:  text,
		ArticleTitle: title,
		ArticleURL:   rawURL,
		SourceMeta:   reliability,
	})
	if err != nil {
		s.fail(w, r, "analysis", err)
		return
	}

	s.monitor.RecordAnalysis()
	respondWithJSON(w, http.StatusOK, analyzeResponse{
		Query:           query,
		NormalizedClaim: claim,
		AnalyzedAt:      s.now().UTC(),
		Article:         article,
		Analysis:        analysis,
	})
}

// handleSources looks a source up by domain or publisher name
func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	domain := strings.TrimSpace(r.URL.Query().Get("domain"))
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if domain == "" && name == "" {
		s.fail(w, r, "sources", NewValidationError(ErrValidationRequest, "A domain or name query parameter is required."))
		return
	}

	var rec *ReliabilityRecord
	if domain != "" {
		rec = s.index.FindByDomain(hostnameOf(domain))
	}
	if rec == nil && name != "" {
		rec = s.index.FindByName(name)
	}
	if rec == nil {
		respondWithHTTPError(w, http.StatusNotFound, "Source not found.")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"source": s.filter.MetaFor(rec, true),
		"thresholds": map[string]float64{
			"maxBias":        s.cfg.MaxBiasThreshold,
			"minReliability": s.cfg.MinReliabilityThreshold,
		},
	})
}

// handleStatus reports uptime, dataset and traffic counters
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.monitor.Status(s.cfg.Version))
}

// decodeBody parses a JSON body, answering 400 or 413 itself on failure
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondWithHTTPError(w, http.StatusRequestEntityTooLarge, ErrMsgPayloadTooBig)
			return false
		}
		s.fail(w, r, "decode", NewValidationError(ErrValidationRequest, ErrMsgInvalidJSON))
		return false
	}
	return true
}

// fail logs a pipeline error and answers with its mapped status
func (s *Server) fail(w http.ResponseWriter, r *http.Request, stage string, err error) {
	id := RequestIDFrom(r.Context())
	switch {
	case StatusFor(err) >= http.StatusInternalServerError:
		Logger().Error("%s failed [%s]: %v", stage, id, err)
	case IsErrorType(err, ErrorTypeValidation):
		Logger().Debug("%s rejected request [%s]: %v", stage, id, err)
	default:
		Logger().Warning("%s failed [%s]: %v", stage, id, err)
	}
	respondWithAppError(w, err)
}
