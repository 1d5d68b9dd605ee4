// Package cdn implements blobstore.Store against a hosted media CDN that
// exposes an upload API and an admin API (resources, folders) scoped to one
// cloud account.
package cdn

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
)

const (
	defaultAPIBase      = "https://api.mediacdn.io"
	defaultDeliveryBase = "https://res.mediacdn.io"
	resourceType        = "image"
	deliveryType        = "upload"
)

// Client is an authenticated CDN API client.
type Client struct {
	cloud     string
	apiKey    string
	apiSecret string
	apiBase   string
	http      *http.Client
}

// Options configures a Client.
type Options struct {
	Cloud     string
	APIKey    string
	APISecret string
	APIBase   string
	Timeout   time.Duration
}

// New creates a Client. If APIBase is empty, the public API endpoint is used.
func New(opts Options) *Client {
	apiBase := opts.APIBase
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	// Strip trailing slash for consistent URL building.
	apiBase = strings.TrimRight(apiBase, "/")

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute // generous for large uploads
	}

	return &Client{
		cloud:     opts.Cloud,
		apiKey:    opts.APIKey,
		apiSecret: opts.APISecret,
		apiBase:   apiBase,
		http:      &http.Client{Timeout: timeout},
	}
}

// do executes the request with credentials and standard headers.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(c.apiKey, c.apiSecret)
	req.Header.Set("Accept", "application/json")
	if req.Header.Get("Content-Type") == "" && req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

// doJSON sends a request and decodes the JSON response into out.
func (c *Client) doJSON(ctx context.Context, method, url string, body, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// url builds an API URL under the cloud's versioned prefix.
func (c *Client) url(query url.Values, parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = escapePath(p)
	}
	u := c.apiBase + "/v1_1/" + url.PathEscape(c.cloud) + "/" + strings.Join(escaped, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// escapePath escapes each segment of a slash-separated path.
func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// apiError is the error envelope returned by the CDN.
type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// checkStatus returns a typed error for non-2xx responses.
func checkStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	default:
		body, _ := io.ReadAll(resp.Body)
		var envelope apiError
		if json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
			return fmt.Errorf("cdn API error %d: %s", resp.StatusCode, envelope.Error.Message)
		}
		return fmt.Errorf("cdn API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
}
