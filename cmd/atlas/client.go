package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/justsurfingit/career-atlas/internal/dtos"
	"github.com/justsurfingit/career-atlas/internal/jobquery"
)

// apiClient fetches listing pages from a running career-atlas API.
type apiClient struct {
	baseURL string
	client  *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *apiClient) FetchJobs(ctx context.Context, spec jobquery.Spec) (dtos.JobListResponse, error) {
	url := c.baseURL + "/api/v1/jobs"
	if q := jobquery.Encode(spec).Encode(); q != "" {
		url += "?" + q
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return dtos.JobListResponse{}, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return dtos.JobListResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return dtos.JobListResponse{}, fmt.Errorf("unexpected status %d for %s: %s", resp.StatusCode, url, strings.TrimSpace(string(body)))
	}

	var out dtos.JobListResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return dtos.JobListResponse{}, fmt.Errorf("decode %s: %w", url, err)
	}
	return out, nil
}
