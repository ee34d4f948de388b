// Package httpping is a JobBody that issues a GET request to a configured
// URL and reports the response status and latency. Grounded on the HTTP
// client configuration of the scheduler's retired webhook executor (timeouts,
// redirect cap, connection reuse), repurposed here as a sample job body
// rather than the engine's own dispatch mechanism.
package httpping

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cronhub/scheduler/internal/registry"
)

func init() {
	registry.RegisterJob("httpping", func() registry.JobBody { return &Job{client: newClient()} })
}

func newClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("stopped after 5 redirects")
			}
			return nil
		},
	}
}

type Job struct {
	client *http.Client
}

type result struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
	LatencyMS  int64  `json:"latency_ms"`
}

func (j *Job) Run(ctx context.Context, _, _ string, args []json.RawMessage) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("httpping: requires a URL argument")
	}
	var url string
	if err := json.Unmarshal(args[0], &url); err != nil {
		return nil, fmt.Errorf("httpping: first argument must be a string URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("httpping: build request: %w", err)
	}

	start := time.Now()
	resp, err := j.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpping: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	return result{URL: url, StatusCode: resp.StatusCode, LatencyMS: time.Since(start).Milliseconds()}, nil
}

func (j *Job) ScheduledDescription(args []json.RawMessage) string {
	return "httpping scheduled"
}

func (j *Job) SucceededDescription(res any) string {
	return fmt.Sprintf("httpping succeeded: %+v", res)
}

func (j *Job) FailedDescription(err error) string {
	return fmt.Sprintf("httpping failed: %v", err)
}

func (j *Job) FailedResult(err error) string {
	return err.Error()
}

func (j *Job) MetaInfo() registry.MetaInfo {
	return registry.MetaInfo{
		Name:      "httpping",
		Notes:     "Issues a GET request to a configured URL and reports status and latency.",
		Arguments: []string{"url (string)"},
		Example:   `{"job_class_string":"httpping","pub_args":["https://example.com"]}`,
	}
}
