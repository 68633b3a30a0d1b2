package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"mystopwatch/backend/internal/api"
)

type client struct {
	httpClient *http.Client
	baseURL    string
}

func newClient(opts *globalOptions) *client {
	return &client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    opts.Addr,
	}
}

// Get fetches the current stopwatch view.
func (c *client) Get(ctx context.Context) (api.StopwatchDTO, error) {
	return c.request(ctx, http.MethodGet, "/api/stopwatch")
}

// Do posts one of start, pause, toggle or reset.
func (c *client) Do(ctx context.Context, action string) (api.StopwatchDTO, error) {
	return c.request(ctx, http.MethodPost, "/api/stopwatch/"+action)
}

// StreamURL returns the websocket URL of the live stream.
func (c *client) StreamURL() (string, error) {
	u, err := url.Parse(c.baseURL + "/api/stopwatch/stream")
	if err != nil {
		return "", fmt.Errorf("parse backend address: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return u.String(), nil
}

func (c *client) request(ctx context.Context, method, path string) (api.StopwatchDTO, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return api.StopwatchDTO{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	logrus.WithFields(logrus.Fields{"method": method, "url": req.URL.String()}).Debug("stopwatch request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return api.StopwatchDTO{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return api.StopwatchDTO{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &payload) == nil && strings.TrimSpace(payload.Error) != "" {
			return api.StopwatchDTO{}, fmt.Errorf("%s %s: %s (%d)", method, path, payload.Error, resp.StatusCode)
		}
		return api.StopwatchDTO{}, errors.New(resp.Status)
	}

	var sw api.StopwatchDTO
	if err := json.Unmarshal(body, &sw); err != nil {
		return api.StopwatchDTO{}, fmt.Errorf("decode stopwatch: %w", err)
	}
	return sw, nil
}
