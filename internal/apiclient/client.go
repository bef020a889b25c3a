// Package apiclient talks to a running drawsimd over its JSON API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/imaddar/drawsim/internal/api"
	"github.com/imaddar/drawsim/internal/domain"
	"github.com/imaddar/drawsim/internal/persistence"
	"github.com/imaddar/drawsim/internal/session"
)

const (
	defaultTimeout       = 10 * time.Second
	maxResponseBodyBytes = 1 << 20
)

var (
	ErrServerNotConfigured = errors.New("drawsim server url not configured")
	ErrRequestTimeout      = errors.New("drawsim request timeout")
	ErrNetwork             = errors.New("drawsim network error")
	ErrMalformedResponse   = errors.New("drawsim response malformed")
	ErrBadRequest          = errors.New("drawsim rejected request")
)

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func New(baseURL string, timeout time.Duration) Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}
}

func (c Client) CreateSession(ctx context.Context, suits []string) (api.SessionResponse, error) {
	var out api.SessionResponse
	err := c.do(ctx, http.MethodPost, "/v1/sessions", map[string]any{"suits": suits}, &out)
	return out, err
}

func (c Client) GetSession(ctx context.Context, id string) (api.SessionResponse, error) {
	var out api.SessionResponse
	err := c.do(ctx, http.MethodGet, sessionPath(id, ""), nil, &out)
	return out, err
}

func (c Client) SetSuits(ctx context.Context, id string, suits []string) ([]string, error) {
	var out api.SuitsResponse
	if err := c.do(ctx, http.MethodPut, sessionPath(id, "/suits"), map[string]any{"suits": suits}, &out); err != nil {
		return nil, err
	}
	return out.Suits, nil
}

func (c Client) Draw(ctx context.Context, id string) (session.DrawResult, error) {
	var out session.DrawResult
	err := c.do(ctx, http.MethodPost, sessionPath(id, "/draw"), nil, &out)
	return out, err
}

// Simulate runs one batch remotely. A zero batchSize uses the server default.
func (c Client) Simulate(ctx context.Context, id string, batchSize int) (session.SimulateResult, error) {
	var body any
	if batchSize != 0 {
		body = map[string]int{"batch_size": batchSize}
	}
	var out session.SimulateResult
	err := c.do(ctx, http.MethodPost, sessionPath(id, "/simulate"), body, &out)
	return out, err
}

func (c Client) Reset(ctx context.Context, id string) (api.SessionResponse, error) {
	var out api.SessionResponse
	err := c.do(ctx, http.MethodPost, sessionPath(id, "/reset"), nil, &out)
	return out, err
}

func (c Client) History(ctx context.Context, id string) ([]domain.HistoryEntry, error) {
	var out api.HistoryResponse
	if err := c.do(ctx, http.MethodGet, sessionPath(id, "/history"), nil, &out); err != nil {
		return nil, err
	}
	entries := make([]domain.HistoryEntry, len(out.Entries))
	for i, entry := range out.Entries {
		entries[i] = entry.HistoryEntry
	}
	return entries, nil
}

func (c Client) do(ctx context.Context, method, path string, payload any, out any) error {
	if c.baseURL == "" {
		return ErrServerNotConfigured
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeoutError(err) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", ErrRequestTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	return decodeStrict(resp.Body, out)
}

// decodeStrict reads exactly one JSON value from body.
func decodeStrict(body io.Reader, out any) error {
	decoder := json.NewDecoder(io.LimitReader(body, maxResponseBodyBytes+1))
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrMalformedResponse, err)
	}
	var trailing json.RawMessage
	if err := decoder.Decode(&trailing); err != io.EOF {
		return fmt.Errorf("%w: response body has trailing data", ErrMalformedResponse)
	}
	return nil
}

// statusError maps a non-2xx reply onto the sentinel the server derived it from.
func statusError(resp *http.Response) error {
	var apiErr api.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodyBytes)).Decode(&apiErr); err != nil || apiErr.Error == "" {
		apiErr.Error = http.StatusText(resp.StatusCode)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", persistence.ErrSessionNotFound, apiErr.Error)
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", domain.ErrNonConvergentBatch, apiErr.Error)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, apiErr.Error)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrNetwork, resp.StatusCode, apiErr.Error)
	}
}

func sessionPath(id, suffix string) string {
	return "/v1/sessions/" + url.PathEscape(id) + suffix
}

func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return false
}
