// File name: tools/facttrace-cli/main.go

package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

func main() {
	query := flag.String("query", "", "Claim to fact-check against news search")
	pageURL := flag.String("url", "", "Analyze this article URL directly")
	claim := flag.String("claim", "", "Claim to check against -url (defaults to the page title)")
	source := flag.String("source", "", "Look up a source by domain instead of analyzing")
	host := flag.String("host", "http://localhost:8787", "FactTrace server base URL")
	timeout := flag.Duration("timeout", 90*time.Second, "Request timeout")
	flag.Parse()

	base := strings.TrimRight(*host, "/")
	var req *http.Request
	var err error

	switch {
	case *source != "":
		req, err = http.NewRequest(http.MethodGet, base+"/api/sources?domain="+url.QueryEscape(*source), nil)
	case *pageURL != "":
		req, err = jsonRequest(base+"/api/analyze-url", map[string]string{"url": *pageURL, "claim": *claim})
	case *query != "":
		req, err = jsonRequest(base+"/api/analyze", map[string]string{"query": *query})
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Println("Invalid request:", err)
		os.Exit(1)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	client := &http.Client{Timeout: *timeout}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Println("Request failed:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Printf("Failed to read response [%d]: %v\n", resp.StatusCode, err)
		os.Exit(1)
	}
	var pretty bytes.Buffer
	if json.Indent(&pretty, data, "", "  ") == nil {
		data = pretty.Bytes()
	}
	fmt.Printf("Response [%d]: %s\n", resp.StatusCode, data)
	if resp.StatusCode >= 400 {
		os.Exit(1)
	}
}

func jsonRequest(target string, payload map[string]string) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}
