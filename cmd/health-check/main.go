// Package main probes a running HealthyPlate server. It is meant for
// container health checks and deploy scripts.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/healthyplate/server/pkg/healthcheck"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

type options struct {
	URL          string
	Timeout      time.Duration
	Format       string
	AllowDegrade bool
	RetryCount   int
	RetryDelay   time.Duration
}

func main() {
	os.Exit(run(parseFlags(), os.Stdout))
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.URL, "url", envOr("HEALTH_CHECK_URL", "http://localhost:8080/health"), "Health endpoint URL")
	flag.DurationVar(&opts.Timeout, "timeout", 5*time.Second, "Request timeout")
	flag.StringVar(&opts.Format, "format", "text", "Output format: text or json")
	flag.BoolVar(&opts.AllowDegrade, "allow-degraded", true, "Treat a degraded report as success")
	flag.IntVar(&opts.RetryCount, "retry", 0, "Number of retries on failure")
	flag.DurationVar(&opts.RetryDelay, "retry-delay", time.Second, "Delay between retries")
	flag.Parse()
	return opts
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(opts options, out io.Writer) int {
	client := &http.Client{Timeout: opts.Timeout}

	var (
		report *healthcheck.Response
		err    error
	)
	for attempt := 0; attempt <= opts.RetryCount; attempt++ {
		if attempt > 0 {
			time.Sleep(opts.RetryDelay)
		}
		report, err = probe(client, opts.URL)
		if err == nil && healthy(report, opts.AllowDegrade) {
			break
		}
	}
	if err != nil {
		fmt.Fprintf(out, "health check failed: %v\n", err)
		return exitCodeError
	}

	if opts.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
	} else {
		fmt.Fprintf(out, "status: %s (version %s)\n", report.Status, report.Version)
		for _, check := range report.Checks {
			line := fmt.Sprintf("  %-12s %s", check.Name, check.Status)
			if check.Message != "" {
				line += " - " + check.Message
			}
			fmt.Fprintln(out, line)
		}
	}

	if !healthy(report, opts.AllowDegrade) {
		return exitCodeFailure
	}
	return exitCodeSuccess
}

func probe(client *http.Client, url string) (*healthcheck.Response, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var report healthcheck.Response
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", resp.Status, err)
	}
	return &report, nil
}

func healthy(report *healthcheck.Response, allowDegraded bool) bool {
	switch report.Status {
	case healthcheck.StatusHealthy:
		return true
	case healthcheck.StatusDegraded:
		return allowDegraded
	default:
		return false
	}
}
