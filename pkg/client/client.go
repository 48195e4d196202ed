package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cuemby/hbase-mesos/pkg/api"
	"github.com/cuemby/hbase-mesos/pkg/events"
	"github.com/cuemby/hbase-mesos/pkg/metrics"
)

// Client reads a running scheduler's status API for CLI usage
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for the status API at addr, given either as
// host:port or as a URL
func NewClient(addr string) (*Client, error) {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid API address %q: %w", addr, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid API address %q: no host", addr)
	}
	return &Client{
		base: strings.TrimRight(u.String(), "/"),
		http: &http.Client{},
	}, nil
}

// State returns the scheduler's phase, tasks and node records
func (c *Client) State(ctx context.Context) (*api.StateResponse, error) {
	var resp api.StateResponse
	if err := c.getJSON(ctx, "/v1/state", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health returns the health report. A 503 is not an error; the report
// says what is failing.
func (c *Client) Health(ctx context.Context) (*metrics.HealthStatus, error) {
	var resp metrics.HealthStatus
	if err := c.getJSON(ctx, "/health", &resp, http.StatusServiceUnavailable); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Events returns up to limit recent events, oldest first
func (c *Client) Events(ctx context.Context, limit int) ([]*events.Event, error) {
	path := "/v1/events"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp []*events.Event
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Follow calls fn for every new event until ctx is done or the stream ends
func (c *Client) Follow(ctx context.Context, fn func(*events.Event)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/v1/events?follow=true", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to follow events: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev events.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			return fmt.Errorf("failed to decode event: %w", err)
		}
		fn(&ev)
	}
	if ctx.Err() != nil {
		return nil
	}
	return scanner.Err()
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}, okCodes ...int) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach scheduler: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && !contains(okCodes, resp.StatusCode) {
		return statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("%s: HTTP %d: %s", resp.Request.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
}

func contains(codes []int, code int) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
