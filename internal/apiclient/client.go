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

	pkgerrors "github.com/sparible/storefront/pkg/errors"
)

const (
	defaultTimeout              = 12 * time.Second
	responseBodyReadLimit int64 = 4096
)

var errBaseURLRequired = errors.New("storefront api base url is required")

// Observer receives per-call telemetry. *metrics.UpstreamMetrics satisfies it.
type Observer interface {
	ObserveRequest(endpoint string, duration time.Duration)
	IncFailure(endpoint, code string)
}

// Client wraps every call the storefront makes against the backend REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	observer   Observer
	now        func() time.Time
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the client-side deadline applied to every call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 && c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithObserver records latency and failures for each call.
func WithObserver(observer Observer) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// NewClient builds a client rooted at baseURL, which already includes the /api prefix.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return client, nil
}

type request struct {
	// endpoint is the metric label, e.g. "GET /products/{id}".
	endpoint string
	method   string
	path     string
	query    url.Values
	token    string
	body     any
}

func (c *Client) do(ctx context.Context, req request, out any) (err error) {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "storefront api client not configured")
	}

	started := c.now()
	defer func() {
		if c.observer == nil {
			return
		}
		c.observer.ObserveRequest(req.endpoint, c.now().Sub(started))
		if typed := pkgerrors.As(err); typed != nil {
			c.observer.IncFailure(req.endpoint, string(typed.Code()))
		}
	}()

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal request body")
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.buildURL(req.path, req.query), body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return statusError(req.method, req.path, resp.StatusCode, raw)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if isTimeout(err) {
			return transportError(err)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode response")
	}
	return nil
}

func (c *Client) buildURL(path string, query url.Values) string {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}

func transportError(err error) error {
	if isTimeout(err) {
		return pkgerrors.Wrap(pkgerrors.CodeTimeout, err, pkgerrors.MetadataFor(pkgerrors.CodeTimeout).PublicMessage)
	}
	if errors.Is(err, context.Canceled) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "request canceled")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storefront api unreachable")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// statusError maps a non-2xx backend answer onto the typed error taxonomy.
// The backend reports failures as {"detail": "..."}; validation failures carry
// a list of {"msg": "..."} entries instead.
func statusError(method, path string, status int, raw []byte) error {
	detail := parseDetail(raw)
	upstream := &pkgerrors.UpstreamError{
		Status: status,
		Method: method,
		Path:   path,
		Detail: detail,
	}

	code := codeForStatus(status)
	message := detail
	if message == "" || code == pkgerrors.CodeDependency {
		message = pkgerrors.MetadataFor(code).PublicMessage
	}
	return pkgerrors.Wrap(code, upstream, message)
}

func codeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return pkgerrors.CodeValidation
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusGatewayTimeout:
		return pkgerrors.CodeTimeout
	default:
		return pkgerrors.CodeDependency
	}
}

func parseDetail(raw []byte) string {
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

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if m := strings.TrimSpace(item.Msg); m != "" {
				msgs = append(msgs, m)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
