// File name: tools/check_env/main.go

package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// settings is the subset of config/facttrace.yml the preflight cares about
type settings struct {
	DatasetPath   string `yaml:"dataset_path"`
	SearchURL     string `yaml:"search_url"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	MirrorBaseURL string `yaml:"mirror_base_url"`
}

type probeResult struct {
	Name    string
	OK      bool
	Message string
	Time    time.Duration
}

func main() {
	configPath := flag.String("config", "", "Config file (defaults to $FACTTRACE_CONFIG or config/facttrace.yml)")
	probe := flag.Bool("probe", false, "Also check that upstream endpoints are reachable")
	flag.Parse()

	fmt.Println("FactTrace Preflight")
	fmt.Println("===================")

	for _, f := range []string{".env", ".env.local"} {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				fmt.Printf("Error loading %s: %v\n", f, err)
				os.Exit(1)
			}
		}
	}

	path := *configPath
	if path == "" {
		path = envOr("FACTTRACE_CONFIG", "config/facttrace.yml")
	}
	cfg := settings{
		DatasetPath:   "data/reliability.csv",
		SearchURL:     "https://api.exa.ai/search",
		OpenAIBaseURL: "https://api.openai.com/v1",
		MirrorBaseURL: "https://r.jina.ai/",
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			fmt.Printf("Error parsing %s: %v\n", path, err)
			os.Exit(1)
		}
	} else {
		fmt.Printf("%s not found, using defaults\n", path)
	}
	cfg.DatasetPath = envOr("RELIABILITY_DATASET", cfg.DatasetPath)
	cfg.SearchURL = envOr("SEARCH_API_URL", cfg.SearchURL)
	cfg.OpenAIBaseURL = envOr("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.MirrorBaseURL = envOr("MIRROR_BASE_URL", cfg.MirrorBaseURL)

	var problems []string

	for _, key := range []string{"EXA_API_KEY", "OPENAI_API_KEY"} {
		if os.Getenv(key) == "" {
			problems = append(problems, key+" is not set")
		} else {
			fmt.Printf("%s is set\n", key)
		}
	}

	if rows, err := checkDataset(cfg.DatasetPath); err != nil {
		problems = append(problems, err.Error())
	} else {
		fmt.Printf("Dataset %s has %d rows\n", cfg.DatasetPath, rows)
	}

	if *probe {
		targets := map[string]string{
			"search": cfg.SearchURL,
			"model":  cfg.OpenAIBaseURL,
		}
		if cfg.MirrorBaseURL != "" {
			targets["mirror"] = cfg.MirrorBaseURL
		}
		for _, r := range probeAll(targets) {
			if r.OK {
				fmt.Printf("✅ %-8s [%6dms] %s\n", r.Name, r.Time.Milliseconds(), r.Message)
			} else {
				fmt.Printf("❌ %-8s [%6dms] %s\n", r.Name, r.Time.Milliseconds(), r.Message)
				problems = append(problems, r.Name+" endpoint unreachable")
			}
		}
	}

	if len(problems) > 0 {
		fmt.Println("\nProblems found:")
		for _, p := range problems {
			fmt.Printf("- %s\n", p)
		}
		os.Exit(1)
	}
	fmt.Println("\nAll checks passed.")
}

// checkDataset confirms the CSV exists and carries a usable key column
func checkDataset(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("dataset unavailable: %v", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("dataset %s has no header: %v", path, err)
	}

	hasKey := false
	for _, col := range header {
		col = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if col == "domain" || col == "moniker_name" {
			hasKey = true
		}
	}
	if !hasKey {
		return 0, fmt.Errorf("dataset %s needs a domain or moniker_name column", path)
	}

	rows := 0
	for {
		_, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("dataset %s row %d: %v", path, rows+2, err)
		}
		rows++
	}
	return rows, nil
}

// probeAll checks every endpoint concurrently. Any HTTP answer counts as
// reachable, since unauthenticated calls are expected to be refused.
func probeAll(targets map[string]string) []probeResult {
	client := &http.Client{Timeout: 10 * time.Second}
	results := make(chan probeResult, len(targets))

	var wg sync.WaitGroup
	for name, target := range targets {
		wg.Add(1)
		go func(name, target string) {
			defer wg.Done()

			start := time.Now()
			req, err := http.NewRequest(http.MethodHead, target, nil)
			if err != nil {
				results <- probeResult{Name: name, Message: fmt.Sprintf("Invalid URL: %v", err)}
				return
			}
			req.Header.Set("User-Agent", "FactTrace Preflight/1.0")

			resp, err := client.Do(req)
			if err != nil {
				results <- probeResult{Name: name, Message: fmt.Sprintf("Request failed: %v", err), Time: time.Since(start)}
				return
			}
			resp.Body.Close()

			results <- probeResult{Name: name, OK: true, Message: resp.Status, Time: time.Since(start)}
		}(name, target)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var out []probeResult
	for r := range results {
		out = append(out, r)
	}
	return out
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
