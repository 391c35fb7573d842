// internal/api/client.go
//
// Client is the typed boundary to the career guidance REST service. Each
// method performs exactly one HTTP request; nothing here retries, caches, or
// deduplicates. Callers own sequencing.

package api

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

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kingrea/careerpath/internal/career"
)

// RequestIDHeader carries a per-request identifier for log correlation.
const RequestIDHeader = "X-Request-ID"

const maxErrorBody = 64 << 10

// Client talks to the career guidance service.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	headers   map[string]string
	logger    *zap.Logger
	requestID func() string
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient overrides the transport. The default client has no timeout;
// cancellation is driven by the request context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithHeaders adds static headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRequestIDs overrides request id generation. Tests use it for stable ids.
func WithRequestIDs(gen func() string) Option {
	return func(c *Client) {
		if gen != nil {
			c.requestID = gen
		}
	}
}

// New builds a client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("api: base url is required")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("api: base url %q must be absolute", baseURL)
	}
	c := &Client{
		baseURL:   parsed,
		http:      &http.Client{},
		headers:   map[string]string{},
		logger:    zap.NewNop(),
		requestID: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// BaseURL returns the service root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) endpoint(path string, query url.Values) string {
	target := strings.TrimRight(c.baseURL.String(), "/") + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}

// send issues the request and converts non-2xx statuses into UpstreamError.
// The caller owns the returned body.
func (c *Client) send(ctx context.Context, op, method, path string, query url.Values, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("api: %s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return nil, fmt.Errorf("api: %s: build request: %w", op, err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	requestID := c.requestID()
	req.Header.Set(RequestIDHeader, requestID)

	fields := []zap.Field{
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", req.URL.Path),
		zap.String("request_id", requestID),
	}
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("api request failed", append(fields, zap.Duration("duration", time.Since(started)), zap.Error(err))...)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("api: %s: %w", op, ctxErr)
		}
		return nil, &career.UpstreamError{Op: op, Detail: "Could not reach the service", Err: err}
	}
	fields = append(fields, zap.Int("status", resp.StatusCode), zap.Duration("duration", time.Since(started)))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		detail := decodeDetail(raw)
		c.logger.Warn("api request rejected", append(fields, zap.String("detail", detail))...)
		return nil, &career.UpstreamError{Op: op, Status: resp.StatusCode, Detail: detail}
	}
	c.logger.Info("api request", fields...)
	return resp, nil
}

// do sends the request and decodes a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	resp, err := c.send(ctx, op, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return malformed(op, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func malformed(op string, status int, err error) error {
	return &career.UpstreamError{Op: op, Status: status, Err: err}
}

// decodeDetail extracts the FastAPI "detail" member, which is either a string
// or a list of validation entries.
func decodeDetail(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var entries []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &entries); err == nil {
		msgs := make([]string, 0, len(entries))
		for _, entry := range entries {
			msg := strings.TrimSpace(entry.Msg)
			if msg == "" {
				continue
			}
			if field := locField(entry.Loc); field != "" {
				msg = field + ": " + msg
			}
			msgs = append(msgs, msg)
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func locField(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok && s != "body" && s != "query" {
		return s
	}
	return ""
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var upstream *career.UpstreamError
	return errors.As(err, &upstream) && upstream.IsNotFound()
}
