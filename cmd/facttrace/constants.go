// cmd/facttrace/constants.go
package main

import "time"

// Application constants
const (
	AppName    = "FactTrace"
	AppVersion = "1.0.0"

	// Default configuration
	DefaultConfigPath  = "config/facttrace.yml"
	DefaultDatasetPath = "data/reliability.csv"
	DefaultStaticDir   = "public"
	DefaultPort        = 8787

	// Time-related constants
	DefaultFetchTimeout   = 15 * time.Second
	DefaultSearchTimeout  = 20 * time.Second
	DefaultModelTimeout   = 45 * time.Second
	ShutdownTimeout       = 10 * time.Second
	DefaultHealthSchedule = "@every 5m"
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 120 * time.Second
	ServerIdleTimeout     = 60 * time.Second
	ServerReadHeaderLimit = 10 * time.Second

	// Rate limits
	DefaultRequestsPerMinute = 60

	// API-related constants
	MaxPayloadSize = 1024 * 1024 // 1MB
	MaxPageSize    = 5 * 1024 * 1024
)

// Reliability thresholds
const (
	DefaultMaxBiasThreshold        = 10.0
	DefaultMinReliabilityThreshold = 35.0
)

// Article selection thresholds, in characters
const (
	MinContentLength  = 600
	MinUsableLength   = 400
	FallbackTextLimit = 800
	SnippetLength     = 280
)

// Search and model defaults
const (
	DefaultSearchURL        = "https://api.exa.ai/search"
	DefaultSearchCategory   = "news"
	DefaultSearchType       = "auto"
	DefaultSearchNumResults = 8
	DefaultPreferredDomain  = "apnews.com"
	DefaultMirrorBaseURL    = "https://r.jina.ai/"
	DefaultModel            = "gpt-4o-mini"
	DefaultTemperature      = 0.2
	DefaultMaxTokens        = 400
	DefaultArticleBudget    = 6000
	DefaultUserAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"
)

// API endpoints
const (
	APIPathHealth     = "/health"
	APIPathAnalyze    = "/analyze"
	APIPathAnalyzeURL = "/analyze-url"
	APIPathSources    = "/sources"
	APIPathStatus     = "/status"
)

// HTTP headers
const (
	HeaderRequestID = "X-Request-ID"
)

// Error messages returned to clients
const (
	ErrMsgInvalidJSON    = "Invalid JSON payload."
	ErrMsgEmptyQuery     = "Query is required."
	ErrMsgURLInQuery     = "Direct URLs are not accepted as claims. Submit them to /api/analyze-url instead."
	ErrMsgNoArticles     = "No relevant articles found."
	ErrMsgNoArticleText  = "Unable to extract article text."
	ErrMsgRateLimit      = "Rate limit exceeded. Try again shortly."
	ErrMsgPayloadTooBig  = "Request body too large."
	ErrMsgInternal       = "Internal server error."
	ErrMsgSourceRejected = "Source rejected by reliability filter."
)
