// Package api is the typed gateway to the Quibo backend. Requests are encoded
// with snake_case field names, responses are converted to camelCase before
// decoding, and every failure is returned as a categorized *Error.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"quibo-cli/internal/casing"
	"quibo-cli/internal/logger"
)

const (
	HeaderAPIKey = "X-API-Key"

	defaultTimeout     = 10 * time.Minute
	defaultMaxAttempts = 3
	defaultRetryDelay  = 500 * time.Millisecond
)

// TokenSource yields the current session's bearer token, or "" when signed out.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns itself.
type StaticToken string

func (t StaticToken) AccessToken(context.Context) (string, error) { return string(t), nil }

type Options struct {
	BaseURL    string
	APIKey     string
	Tokens     TokenSource
	HTTPClient *http.Client
	Logger     *slog.Logger

	// MaxAttempts bounds automatic retries of idempotent reads. Zero means 3.
	MaxAttempts uint
	// RetryDelay is the initial backoff interval. Zero means 500ms.
	RetryDelay time.Duration
}

type Client struct {
	base        *url.URL
	apiKey      string
	tokens      TokenSource
	hc          *http.Client
	log         *slog.Logger
	maxAttempts uint
	retryDelay  time.Duration
}

func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, errors.New("api: base URL is required")
	}
	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api: base URL must be http or https: %q", raw)
	}
	c := &Client{
		base:        u,
		apiKey:      opts.APIKey,
		tokens:      opts.Tokens,
		hc:          opts.HTTPClient,
		log:         opts.Logger,
		maxAttempts: opts.MaxAttempts,
		retryDelay:  opts.RetryDelay,
	}
	if c.hc == nil {
		c.hc = &http.Client{Timeout: defaultTimeout}
	}
	if c.log == nil {
		c.log = logger.Default()
	}
	if c.maxAttempts == 0 {
		c.maxAttempts = defaultMaxAttempts
	}
	if c.retryDelay <= 0 {
		c.retryDelay = defaultRetryDelay
	}
	return c, nil
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string { return c.base.String() }

// encoder produces a fresh request body for each attempt.
type encoder func() (io.Reader, string, error)

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	var enc encoder
	if in != nil {
		body, err := encodeBody(in)
		if err != nil {
			return err
		}
		enc = func() (io.Reader, string, error) {
			return bytes.NewReader(body), "application/json", nil
		}
	}
	return c.do(ctx, http.MethodPost, path, nil, enc, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, enc encoder, out any) error {
	attempt := func() ([]byte, error) { return c.send(ctx, method, path, query, enc) }

	var (
		raw []byte
		err error
	)
	if method == http.MethodGet || method == http.MethodHead {
		raw, err = c.retry(ctx, attempt)
	} else {
		raw, err = attempt()
	}
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := decodeBody(raw, out); err != nil {
		return &Error{Method: method, Path: path, Category: CategoryDecode, Details: string(raw), Err: err}
	}
	return nil
}

// send performs one HTTP exchange and returns the body of a 2xx response.
// A 204 yields a nil body.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, enc encoder) ([]byte, error) {
	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	if enc != nil {
		var err error
		body, contentType, err = enc()
		if err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.authorize(ctx, req)

	log := logger.FromContext(ctx, c.log).With("method", method, "path", path)
	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		log.Warn("request failed", "err", err, "duration", time.Since(start))
		return nil, &Error{Method: method, Path: path, Category: CategoryNetwork, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn("read response failed", "status", resp.StatusCode, "err", err)
		return nil, &Error{Method: method, Path: path, Status: resp.StatusCode, Category: CategoryNetwork, Err: err}
	}
	log.Debug("request", "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e := newStatusError(method, path, resp.StatusCode, raw)
		log.Warn("request rejected", "status", resp.StatusCode, "detail", e.Detail())
		return nil, e
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	return raw, nil
}

func (c *Client) authorize(ctx context.Context, req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set(HeaderAPIKey, c.apiKey)
	}
	if c.tokens == nil {
		return
	}
	tok, err := c.tokens.AccessToken(ctx)
	if err != nil {
		c.log.Warn("session token unavailable", "err", err)
		return
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
}

// encodeBody marshals v, converts its keys to snake_case and marshals again.
func encodeBody(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("api: encode request: %w", err)
	}
	var generic any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("api: encode request: %w", err)
	}
	return json.Marshal(casing.ToSnake(generic))
}

// decodeBody converts the response's keys to camelCase and decodes into out.
func decodeBody(raw []byte, out any) error {
	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return err
	}
	var converted any
	if ik, ok := out.(identifierKeys); ok {
		converted, out = keepTopKeys(generic), ik.out
	} else {
		converted = casing.ToCamel(generic)
	}
	if p, ok := out.(*any); ok {
		*p = converted
		return nil
	}
	b, err := json.Marshal(converted)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// identifierKeys marks a response whose top-level keys are identifiers
// (persona keys) rather than field names.
type identifierKeys struct{ out any }

func keepTopKeys(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return casing.ToCamel(v)
	}
	out := make(map[string]any, len(m))
	for k, x := range m {
		out[k] = casing.ToCamel(x)
	}
	return out
}

// UploadFile is one part of a multipart upload.
type UploadFile struct {
	Name        string
	ContentType string
	Content     []byte
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func multipartBody(files []UploadFile, fields map[string]string) encoder {
	return func() (io.Reader, string, error) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for _, f := range files {
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, quoteEscaper.Replace(f.Name)))
			ct := f.ContentType
			if ct == "" {
				ct = "application/octet-stream"
			}
			h.Set("Content-Type", ct)
			part, err := w.CreatePart(h)
			if err != nil {
				return nil, "", err
			}
			if _, err := part.Write(f.Content); err != nil {
				return nil, "", err
			}
		}
		for k, v := range fields {
			if v == "" {
				continue
			}
			if err := w.WriteField(k, v); err != nil {
				return nil, "", err
			}
		}
		if err := w.Close(); err != nil {
			return nil, "", err
		}
		return &buf, w.FormDataContentType(), nil
	}
}

func (c *Client) postMultipart(ctx context.Context, path string, files []UploadFile, fields map[string]string, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, multipartBody(files, fields), out)
}
