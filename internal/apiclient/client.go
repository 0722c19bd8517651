package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lectern/internal/api"
)

const defaultTimeout = 10 * time.Second

// Client provides typed access to a running daemon's HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// New builds a client for the daemon listening at baseURL. The token may be
// empty when the daemon runs without API authentication.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("apiclient: base URL is required")
	}
	client := &Client{
		baseURL:    trimmed,
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ForBind builds a client targeting a local daemon bind address such as
// "127.0.0.1:7512".
func ForBind(bind, token string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(bind)
	if trimmed == "" {
		return nil, fmt.Errorf("apiclient: bind address is required")
	}
	return New("http://"+trimmed, token, opts...)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("apiclient: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("apiclient: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("apiclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("apiclient: decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && body.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: body.Error}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
}

// APIError carries a daemon error response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("daemon returned %d: %s", e.StatusCode, e.Message)
}

// Status retrieves daemon runtime information.
func (c *Client) Status(ctx context.Context) (*api.DaemonStatus, error) {
	var status api.DaemonStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// InitSession creates or finds the session for a room instance.
func (c *Client) InitSession(ctx context.Context, req api.SessionInitRequest) (*api.Session, error) {
	var session api.Session
	if err := c.do(ctx, http.MethodPost, "/api/sessions/init", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// EndSession closes an open session.
func (c *Client) EndSession(ctx context.Context, sessionKey string) (*api.Session, error) {
	var session api.Session
	req := api.SessionEndRequest{SessionKey: sessionKey}
	if err := c.do(ctx, http.MethodPost, "/api/sessions/end", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Sessions lists recent sessions, newest first.
func (c *Client) Sessions(ctx context.Context, limit int) ([]api.Session, error) {
	path := "/api/sessions"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp api.SessionListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// StartRecording starts a capture job for a room instance.
func (c *Client) StartRecording(ctx context.Context, req api.RecordingStartRequest) (*api.Recording, error) {
	var recording api.Recording
	if err := c.do(ctx, http.MethodPost, "/api/recordings/start", req, &recording); err != nil {
		return nil, err
	}
	return &recording, nil
}

// StopRecording stops the active capture jobs for a room.
func (c *Client) StopRecording(ctx context.Context, req api.RecordingStopRequest) error {
	return c.do(ctx, http.MethodPost, "/api/recordings/stop", req, nil)
}

// Recordings lists recordings, optionally filtered by session key.
func (c *Client) Recordings(ctx context.Context, sessionKey string, limit int) ([]api.Recording, error) {
	query := url.Values{}
	if sessionKey != "" {
		query.Set("sessionKey", sessionKey)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/recordings"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var resp api.RecordingListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Transcript fetches a session's fragments in playback order.
func (c *Client) Transcript(ctx context.Context, sessionKey, language string) ([]api.Fragment, error) {
	query := url.Values{}
	query.Set("sessionKey", sessionKey)
	if language != "" {
		query.Set("language", language)
	}
	var resp api.TranscriptListResponse
	if err := c.do(ctx, http.MethodGet, "/api/transcripts?"+query.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// AppendFragment appends one utterance fragment to a session transcript.
func (c *Client) AppendFragment(ctx context.Context, req api.TranscriptAppendRequest) (bool, error) {
	var resp api.TranscriptAppendResponse
	if err := c.do(ctx, http.MethodPost, "/api/transcripts", req, &resp); err != nil {
		return false, err
	}
	return resp.Created, nil
}
