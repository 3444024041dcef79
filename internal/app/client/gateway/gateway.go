// Package gateway talks to the remote MinC/VEGU API. Every record it returns
// is already normalized into record.Record.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"mincadmin/internal/domain/record"
)

const (
	DefaultTimeout = 20 * time.Second
	SearchLimit    = 10
	maxErrorBody   = 512

	// conflictCode is the error code of a 409 caused by a stale etag.
	conflictCode = "etag_mismatch"
)

// Paths are the endpoint paths relative to the base URL.
type Paths struct {
	LoginInit     string
	LoginPassword string
	SendOTP       string
	VerifyOTP     string
	Health        string
	RevealUser    string
}

func DefaultPaths() Paths {
	return Paths{
		LoginInit:     "/api/minc-login-init",
		LoginPassword: "/api/minc-login-password",
		SendOTP:       "/api/minc-send-email-otp",
		VerifyOTP:     "/api/minc-verify-email-otp",
		Health:        "/api/health",
		RevealUser:    "/api/vegu/reveal-user",
	}
}

func getPath(kind record.Kind, id string) string {
	return "/api/vegu-" + kind.Plural() + "/" + url.PathEscape(id)
}

func searchPath(kind record.Kind) string { return "/api/vegu-" + kind.Plural() + "-search" }

func updatePath(kind record.Kind) string { return "/api/vegu-" + kind.Plural() + "-update" }

type Config struct {
	BaseURL string
	// APIKey is sent as the "code" query parameter when set.
	APIKey  string
	Timeout time.Duration
	Paths   Paths
	// Location renders lockout times; nil means time.Local.
	Location *time.Location
	// HTTPClient replaces the default client, mainly for tests.
	HTTPClient *http.Client
}

type Client struct {
	client    *http.Client
	log       *slog.Logger
	baseURL   string
	apiKey    string
	paths     Paths
	loc       *time.Location
	userAgent string
}

func New(cfg Config, log *slog.Logger) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		}
	}
	paths := cfg.Paths
	if paths == (Paths{}) {
		paths = DefaultPaths()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		client:    hc,
		log:       log.With(slog.String("component", "gateway")),
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		paths:     paths,
		loc:       cfg.Location,
		userAgent: "mincadmin/1.0",
	}
}

// response is a fully read HTTP response.
type response struct {
	status int
	body   []byte
	header http.Header
}

func (h *Client) doRequest(ctx context.Context, method, path string, query url.Values, body any) (*response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	if query == nil {
		query = url.Values{}
	}
	if h.apiKey != "" {
		query.Set("code", h.apiKey)
	}
	target := h.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	h.log.Debug("sending request",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("request_id", reqID),
	)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: method + " " + path, Err: err}
	}
	return h.parseResponse(resp, reqID)
}

func (h *Client) parseResponse(resp *http.Response, reqID string) (*response, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: "read response", Err: err}
	}

	h.log.Debug("received response",
		slog.Int("status", resp.StatusCode),
		slog.String("request_id", reqID),
		slog.String("body", truncate(string(body), maxErrorBody)),
	)

	return &response{status: resp.StatusCode, body: body, header: resp.Header}, nil
}

// decode parses the body as a JSON object. An empty body decodes to an empty
// object; anything else that is not JSON is a ResponseError carrying the text.
func (r *response) decode(v any) error {
	if len(bytes.TrimSpace(r.body)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(r.body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return &ResponseError{Status: r.status, Body: truncate(string(r.body), maxErrorBody), Err: err}
	}
	return nil
}

// envelope is the common response shape: {success, error, message, etag, ...}.
type envelope map[string]any

func (e envelope) str(key string) string {
	return record.Stringify(e[key])
}

func (e envelope) object(key string) (map[string]any, bool) {
	m, ok := e[key].(map[string]any)
	return m, ok
}

// message picks the human-readable error, including problem+json details.
func (e envelope) message() string {
	for _, key := range []string{"message", "error", "detail", "title"} {
		if m := e.str(key); m != "" {
			return m
		}
	}
	return ""
}

func (r *response) envelope() (envelope, error) {
	env := envelope{}
	if err := r.decode(&env); err != nil {
		return nil, err
	}
	return env, nil
}

// statusError maps a failed response to a typed error. nil for 2xx.
func (r *response) statusError(what string) error {
	if r.status < 300 {
		return nil
	}
	env, err := r.envelope()
	msg := env.message()
	if err != nil {
		msg = strings.TrimSpace(truncate(string(r.body), maxErrorBody))
	}

	switch {
	case r.status == http.StatusNotFound:
		if msg == "" {
			return fmt.Errorf("%s: %w", what, record.ErrNotFound)
		}
		return fmt.Errorf("%s: %w: %s", what, record.ErrNotFound, msg)
	case r.status == http.StatusConflict && env.str("error") == conflictCode:
		return &VersionConflictError{Token: env.str("etag"), Message: msg}
	case r.status >= 500:
		return &ServerError{Status: r.status, Message: msg}
	default:
		return &ValidationError{Status: r.status, Message: msg}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
