package egress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lectern/internal/services"
)

// API defines the recording backend operations the lifecycle manager uses.
type API interface {
	StartJob(ctx context.Context, req StartJobRequest) (*EgressInfo, error)
	ListJobs(ctx context.Context, roomName string) ([]EgressInfo, error)
	StopJob(ctx context.Context, jobID string) (*EgressInfo, error)
}

// Client talks to the recording backend over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

var _ API = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// New creates a backend client.
func New(baseURL, apiKey, apiSecret string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("egress base url required")
	}
	apiKey = strings.TrimSpace(apiKey)
	apiSecret = strings.TrimSpace(apiSecret)
	if apiKey == "" || apiSecret == "" {
		return nil, errors.New("egress credentials required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// StartJob requests a new capture job for a room.
func (c *Client) StartJob(ctx context.Context, req StartJobRequest) (*EgressInfo, error) {
	if strings.TrimSpace(req.RoomName) == "" {
		return nil, errors.New("room name must not be empty")
	}
	var info EgressInfo
	if err := c.post(ctx, "/egress/start", req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ListJobs returns the backend's jobs for a room, including terminal ones.
func (c *Client) ListJobs(ctx context.Context, roomName string) ([]EgressInfo, error) {
	if strings.TrimSpace(roomName) == "" {
		return nil, errors.New("room name must not be empty")
	}
	endpoint, err := url.Parse(c.baseURL + "/egress/list")
	if err != nil {
		return nil, fmt.Errorf("parse egress url: %w", err)
	}
	params := url.Values{}
	params.Set("roomName", roomName)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, "egress", "list jobs", "execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrUpstream, "egress", "list jobs",
			fmt.Sprintf("backend returned %d", resp.StatusCode), nil)
	}

	var payload struct {
		Items []EgressInfo `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode list response: %w", err)
	}
	return payload.Items, nil
}

// StopJob requests termination of a job by id.
func (c *Client) StopJob(ctx context.Context, jobID string) (*EgressInfo, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, errors.New("job id must not be empty")
	}
	body := struct {
		EgressID string `json:"egressId"`
	}{EgressID: jobID}
	var info EgressInfo
	if err := c.post(ctx, "/egress/stop", body, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrUpstream, "egress", "post "+path, "execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return services.Wrap(services.ErrUpstream, "egress", "post "+path,
			fmt.Sprintf("backend returned %d", resp.StatusCode), nil)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
