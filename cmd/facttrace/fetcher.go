// cmd/facttrace/fetcher.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"
)

// ErrPrivateAddress is returned when a fetch would connect to a non-public IP
var ErrPrivateAddress = errors.New("refusing to connect to non-public address")

// PageFetcher retrieves the raw HTML of a page
type PageFetcher interface {
	FetchHTML(ctx context.Context, rawURL string) (string, error)
}

// fetchAttempt is one step of the fallback chain: it turns the requested URL into
// the URL actually requested.
type fetchAttempt struct {
	Name   string
	Target func(rawURL string) (string, error)
}

// ArticleFetcher downloads pages directly, then through a readable-text mirror,
// then through the mirror wrapped in itself.
type ArticleFetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	attempts  []fetchAttempt
}

// NewArticleFetcher creates a fetcher from configuration. Unless AllowPrivateHosts
// is set, connections to loopback, private, link-local and unspecified addresses are
// refused at dial time, which also covers redirects.
func NewArticleFetcher(cfg *Config) *ArticleFetcher {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	if !cfg.AllowPrivateHosts {
		dialer.Control = publicOnlyControl
	}

	return &ArticleFetcher{
		client: &http.Client{
			Transport: &http.Transport{
				DialContext:         dialer.DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				MaxConnsPerHost:     10,
				TLSHandshakeTimeout: 10 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
		userAgent: cfg.UserAgentString,
		timeout:   cfg.FetchTimeout(),
		attempts:  defaultAttempts(cfg.MirrorBaseURL),
	}
}

// publicOnlyControl runs after DNS resolution, on the address actually dialed
func publicOnlyControl(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil || !isPublicIP(ip) {
		return fmt.Errorf("%w: %s", ErrPrivateAddress, host)
	}
	return nil
}

func isPublicIP(ip net.IP) bool {
	switch {
	case ip.IsLoopback(), ip.IsPrivate(), ip.IsUnspecified(),
		ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast(),
		ip.IsInterfaceLocalMulticast(), ip.IsMulticast():
		return false
	}
	return true
}

// defaultAttempts builds the direct, mirror, double-mirror chain
func defaultAttempts(mirrorBase string) []fetchAttempt {
	attempts := []fetchAttempt{
		{Name: "direct", Target: directTarget},
	}
	if mirrorBase == "" {
		return attempts
	}
	return append(attempts,
		fetchAttempt{Name: "mirror", Target: func(raw string) (string, error) {
			return mirrorTarget(mirrorBase, raw)
		}},
		fetchAttempt{Name: "double-mirror", Target: func(raw string) (string, error) {
			inner, err := mirrorTarget(mirrorBase, raw)
			if err != nil {
				return "", err
			}
			return mirrorBase + inner, nil
		}},
	)
}

func directTarget(raw string) (string, error) {
	u, err := parseHTTPURL(raw)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// mirrorTarget prefixes the query- and fragment-free URL with the mirror base
func mirrorTarget(mirrorBase, raw string) (string, error) {
	stripped, err := stripQueryAndFragment(raw)
	if err != nil {
		return "", err
	}
	return mirrorBase + stripped, nil
}

func stripQueryAndFragment(raw string) (string, error) {
	u, err := parseHTTPURL(raw)
	if err != nil {
		return "", err
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}

// parseHTTPURL accepts absolute http(s) URLs only
func parseHTTPURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("URL has no host")
	}
	return u, nil
}

// AttemptNames lists the fallback chain in order
func (f *ArticleFetcher) AttemptNames() []string {
	names := make([]string, len(f.attempts))
	for i, a := range f.attempts {
		names[i] = a.Name
	}
	return names
}

// FetchHTML walks the fallback chain and returns the first non-empty body.
// It fails only when every attempt failed, wrapping the last attempt's error.
func (f *ArticleFetcher) FetchHTML(ctx context.Context, rawURL string) (string, error) {
	var lastErr error

	for _, attempt := range f.attempts {
		body, err := f.try(ctx, attempt, rawURL)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return "", NewFetchError(ErrFetchExhausted, "fetch cancelled", ctx.Err())
		}
		Logger().Debug("Fetch %s attempt for %s failed: %v", attempt.Name, rawURL, err)
		lastErr = err
	}

	return "", NewFetchError(ErrFetchExhausted,
		fmt.Sprintf("all %d fetch attempts failed for %s", len(f.attempts), rawURL), lastErr)
}

func (f *ArticleFetcher) try(ctx context.Context, attempt fetchAttempt, rawURL string) (string, error) {
	target, err := attempt.Target(rawURL)
	if err != nil {
		return "", NewFetchError(ErrFetchAttempt, fmt.Sprintf("%s: invalid URL", attempt.Name), err)
	}

	body, err := f.get(ctx, target)
	if err != nil {
		return "", NewFetchError(ErrFetchAttempt, fmt.Sprintf("%s: %s", attempt.Name, target), err)
	}
	return body, nil
}

// get performs one bounded GET
func (f *ArticleFetcher) get(ctx context.Context, target string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxPageSize))
	if err != nil {
		return "", err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return "", errors.New("empty response body")
	}
	return string(data), nil
}
