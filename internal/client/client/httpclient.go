package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/peeksync/internal/common"
	"github.com/dmitrijs2005/peeksync/internal/protocol"
	"github.com/dmitrijs2005/peeksync/internal/timex"
)

// Config describes how to reach one server profile.
type Config struct {
	BaseURL    string
	APIKey     string
	Profile    string
	Slug       string
	ClientName string
	Timeout    time.Duration
	Transport  http.RoundTripper
}

type HTTPClient struct {
	baseURL *url.URL
	apiKey  string
	query   url.Values
	gate    *GateTransport
	http    *http.Client
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q", cfg.BaseURL)
	}

	q := url.Values{}
	if cfg.Profile != "" {
		q.Set("profile", cfg.Profile)
	}
	if cfg.Slug != "" {
		q.Set("slug", cfg.Slug)
	}

	gate := NewGateTransport(cfg.Transport, cfg.ClientName)
	return &HTTPClient{
		baseURL: u,
		apiKey:  cfg.APIKey,
		query:   q,
		gate:    gate,
		http:    &http.Client{Transport: gate, Timeout: cfg.Timeout},
	}, nil
}

// Disabled reports whether the version gate has tripped.
func (c *HTTPClient) Disabled() bool {
	return c.gate.Disabled()
}

func (c *HTTPClient) FetchItems(ctx context.Context, since *int64) ([]protocol.ServerItem, error) {
	path := "/items"
	if since != nil && *since > 0 {
		path = "/items/since/" + url.PathEscape(timex.ToISO(*since))
	}

	var resp protocol.PullResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *HTTPClient) PushItem(ctx context.Context, req protocol.PushRequest) (*protocol.PushResponse, error) {
	var resp protocol.PushResponse
	if err := c.do(ctx, http.MethodPost, "/items", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	u := *c.baseURL
	u.Path += path
	u.RawQuery = c.query.Encode()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return c.mapError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *HTTPClient) mapError(err error) error {
	switch {
	case errors.Is(err, common.ErrSyncDisabled):
		return common.ErrSyncDisabled
	case errors.Is(err, common.ErrVersionMismatch):
		var vm *protocol.VersionMismatchError
		if errors.As(err, &vm) {
			return vm
		}
		return common.ErrVersionMismatch
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case isTimeout(err):
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

func isTimeout(err error) bool {
	var ue *url.Error
	return errors.As(err, &ue) && ue.Timeout()
}

func readErrorMessage(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	var e protocol.ErrorResponse
	if json.Unmarshal(b, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(b))
}
