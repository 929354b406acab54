// Package apiclient wraps every call the front ends make to the ClientFlow
// REST API: auth token attachment, 401 teardown and envelope unwrapping.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/clientflow/internal/config"
	"github.com/BruksfildServices01/clientflow/internal/httperr"
	"github.com/BruksfildServices01/clientflow/internal/httpresp"
)

const maxBodyBytes = 4 << 20

// TokenSource returns the current access token, or "" when logged out.
type TokenSource interface {
	Token() string
}

// UnauthorizedHandler tears the session down after a 401. It must not issue
// requests through the client that called it.
type UnauthorizedHandler interface {
	HandleUnauthorized(ctx context.Context)
}

type ctxKey int

const skipInterceptionKey ctxKey = iota

// WithoutInterception marks requests made with ctx so a 401 answer does not
// trigger the session teardown. Remote logout uses it.
func WithoutInterception(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipInterceptionKey, true)
}

func interceptionDisabled(ctx context.Context) bool {
	v, _ := ctx.Value(skipInterceptionKey).(bool)
	return v
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	authMode   string
	tokens     TokenSource
	onUnauth   UnauthorizedHandler
	log        *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithAuthMode(mode string) Option {
	return func(c *Client) { c.authMode = mode }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithUnauthorizedHandler(h UnauthorizedHandler) Option {
	return func(c *Client) { c.onUnauth = h }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		authMode: config.AuthModeHeader,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return c
}

// NewFromConfig builds a client from the loaded configuration.
func NewFromConfig(cfg *config.Config, tokens TokenSource, onUnauth UnauthorizedHandler, log *zap.Logger) *Client {
	return New(cfg.APIBaseURL,
		WithHTTPClient(&http.Client{Timeout: cfg.APITimeout}),
		WithAuthMode(cfg.AuthMode),
		WithTokenSource(tokens),
		WithUnauthorizedHandler(onUnauth),
		WithLogger(log),
	)
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Do sends a JSON request and decodes the unwrapped response into out.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}

	req, err := c.newRequest(ctx, method, path, query, reader, contentType)
	if err != nil {
		return err
	}

	raw, err := c.send(req, path)
	if err != nil {
		return err
	}
	if err := httpresp.Decode(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// Upload posts r as multipart/form-data under field.
func (c *Client) Upload(ctx context.Context, path, field, filename string, r io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("copy upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, nil, &buf, mw.FormDataContentType())
	if err != nil {
		return err
	}
	raw, err := c.send(req, path)
	if err != nil {
		return err
	}
	if err := httpresp.Decode(raw, out); err != nil {
		return fmt.Errorf("decode upload %s: %w", path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Request, error) {
	u, err := url.Parse(c.baseURL + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("build url %s: %w", path, err)
	}

	q := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}

	token := ""
	if c.tokens != nil {
		token = c.tokens.Token()
	}
	if token != "" && (c.authMode == config.AuthModeQuery || c.authMode == config.AuthModeBoth) {
		q.Set("token", token)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" && c.authMode != config.AuthModeQuery {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, path string) ([]byte, error) {
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("api request failed",
			zap.String("method", req.Method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s %s: %w", req.Method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", req.Method, path, err)
	}

	c.log.Debug("api request",
		zap.String("method", req.Method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
		zap.String("request_id", req.Header.Get("X-Request-ID")),
	)

	if resp.StatusCode >= 300 {
		apiErr := httperr.NewAPIError(req.Method, path, resp.StatusCode, body)
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauth != nil && !interceptionDisabled(req.Context()) {
			c.onUnauth.HandleUnauthorized(context.WithoutCancel(req.Context()))
		}
		return nil, apiErr
	}
	return body, nil
}
