// Package provider wraps the Apify actor-run API behind the three
// capabilities the pipeline needs: start a run, read a run's status, and
// fetch the result dataset. AwaitRun adds bounded polling on top.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultBaseURL = "https://api.apify.com/v2"

// RunStatus is the provider-reported lifecycle status of an actor run.
type RunStatus string

const (
	RunReady     RunStatus = "READY"
	RunRunning   RunStatus = "RUNNING"
	RunSucceeded RunStatus = "SUCCEEDED"
	RunFailed    RunStatus = "FAILED"
	RunAborted   RunStatus = "ABORTED"
	RunTimedOut  RunStatus = "TIMED-OUT"

	// RunLocalTimeout is not a provider status: AwaitRun reports it when the
	// run did not reach a terminal state within MaxWait. The provider run may
	// still finish later and become retry-eligible.
	RunLocalTimeout RunStatus = "LOCAL-TIMEOUT"
)

// IsTerminal returns true for provider-terminal statuses.
func IsTerminal(s RunStatus) bool {
	switch s {
	case RunSucceeded, RunFailed, RunAborted, RunTimedOut:
		return true
	}
	return false
}

// Run is the subset of the actor-run record the pipeline cares about.
type Run struct {
	ID        string
	Status    RunStatus
	DatasetID string
}

// RunResult is what AwaitRun hands back: the terminal (or locally timed out)
// status plus the raw dataset items on success.
type RunResult struct {
	Status RunStatus
	Items  []json.RawMessage
}

// Client talks to the actor-run API. PollInterval and MaxWait are first-class
// so tests can exercise the timeout path without waiting real minutes.
type Client struct {
	BaseURL      string
	Token        string
	HTTPClient   *http.Client
	PollInterval time.Duration
	MaxWait      time.Duration
}

// NewClient constructs a Client with production defaults: 5s poll interval,
// 15m maximum wait.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:      baseURL,
		Token:        token,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		PollInterval: 5 * time.Second,
		MaxWait:      15 * time.Minute,
	}
}

// StartRun submits an actor run with the given input and returns the run id.
func (c *Client) StartRun(ctx context.Context, actorID string, input map[string]any) (string, error) {
	url := fmt.Sprintf("%s/acts/%s/runs?token=%s", c.BaseURL, actorID, c.Token)

	body, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("marshal actor input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("start actor run: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("start actor %s: status %d: %s", actorID, resp.StatusCode, string(respBody))
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode run response: %w", err)
	}
	if result.Data.ID == "" {
		return "", fmt.Errorf("actor %s returned no run id", actorID)
	}

	return result.Data.ID, nil
}

// GetRun reads the current status of a run.
func (c *Client) GetRun(ctx context.Context, runID string) (*Run, error) {
	url := fmt.Sprintf("%s/actor-runs/%s?token=%s", c.BaseURL, runID, c.Token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get run %s: status %d: %s", runID, resp.StatusCode, string(respBody))
	}

	var result struct {
		Data struct {
			ID               string `json:"id"`
			Status           string `json:"status"`
			DefaultDatasetID string `json:"defaultDatasetId"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", runID, err)
	}

	return &Run{
		ID:        result.Data.ID,
		Status:    RunStatus(result.Data.Status),
		DatasetID: result.Data.DefaultDatasetID,
	}, nil
}

// RunStatus returns just the status of a run. Used by retry validation and
// stuck-job recovery, which only need the provider's authoritative state.
func (c *Client) RunStatus(ctx context.Context, runID string) (RunStatus, error) {
	run, err := c.GetRun(ctx, runID)
	if err != nil {
		return "", err
	}
	return run.Status, nil
}

// DatasetItems fetches the raw items of a run's default dataset.
func (c *Client) DatasetItems(ctx context.Context, datasetID string) ([]json.RawMessage, error) {
	url := fmt.Sprintf("%s/datasets/%s/items?token=%s", c.BaseURL, datasetID, c.Token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get dataset %s: %w", datasetID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get dataset %s: status %d: %s", datasetID, resp.StatusCode, string(respBody))
	}

	var items []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", datasetID, err)
	}

	return items, nil
}

// AwaitRun polls the run until it reaches a terminal status, then fetches the
// dataset items for a succeeded run. When MaxWait elapses first, the result
// carries RunLocalTimeout and no items; the provider-side run is left alone.
func (c *Client) AwaitRun(ctx context.Context, runID string) (*RunResult, error) {
	deadline := time.Now().Add(c.MaxWait)

	for {
		if time.Now().After(deadline) {
			return &RunResult{Status: RunLocalTimeout}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.PollInterval):
		}

		run, err := c.GetRun(ctx, runID)
		if err != nil {
			return nil, err
		}

		switch run.Status {
		case RunSucceeded:
			items, err := c.DatasetItems(ctx, run.DatasetID)
			if err != nil {
				return nil, err
			}
			return &RunResult{Status: RunSucceeded, Items: items}, nil
		case RunFailed, RunAborted, RunTimedOut:
			return &RunResult{Status: run.Status}, nil
		}
		// READY or RUNNING — keep polling
	}
}
