// Package client talks to the catalog JSON API. Its Resource type plugs a
// remote collection into the list engine, so the terminal front end drives
// the same ViewModel the HTML pages use.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/simp-lee/catalogadmin/internal/config"
	"github.com/simp-lee/catalogadmin/internal/domain"
)

// APIPrefix is the path under which the JSON API is mounted.
const APIPrefix = "/api/v1"

// Client holds the base URL and transport shared by all resources.
type Client struct {
	base *url.URL
	http *http.Client
}

// New returns a Client for the API at baseURL. A nil httpClient uses
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host are required", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: u, http: httpClient}, nil
}

// FromConfig builds a Client from adminctl settings.
func FromConfig(cfg *config.ClientConfig) (*Client, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	return New(cfg.BaseURL, &http.Client{Timeout: timeout})
}

// StatusError is a non-2xx API response.
type StatusError struct {
	StatusCode int
	Status     string
	Message    string
	// Fields holds per-field validation messages, when the server sent any.
	Fields map[string]string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + e.Fields[k]
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	return fmt.Sprintf("%d %s", e.StatusCode, msg)
}

// envelope mirrors the server's response and validation error bodies.
type envelope struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

// checkError turns a non-2xx response into an *domain.AppError wrapping a
// *StatusError, so callers can branch on the domain helpers.
func checkError(resp *http.Response, body []byte) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	apiErr := &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
	} else {
		apiErr.Message = env.Message
		apiErr.Fields = env.Errors
	}

	message := apiErr.Message
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return domain.NewAppError(codeFor(resp.StatusCode), message, apiErr)
}

func codeFor(status int) domain.Code {
	switch status {
	case http.StatusNotFound:
		return domain.CodeNotFound
	case http.StatusConflict:
		return domain.CodeConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domain.CodeValidation
	default:
		return domain.CodeInternal
	}
}

// do sends a JSON request and decodes the envelope's data into respData.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, reqData, respData any) error {
	_, err := c.send(ctx, method, path, query, reqData, respData)
	return err
}

// send is do that also returns the response headers.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, reqData, respData any) (http.Header, error) {
	var reqBody io.Reader
	if reqData != nil {
		data, err := json.Marshal(reqData)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	requestURL := c.base.JoinPath(path)
	if len(query) > 0 {
		requestURL.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL.String(), reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkError(resp, body); err != nil {
		return nil, err
	}

	if respData == nil || len(body) == 0 {
		return resp.Header, nil
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return resp.Header, nil
	}
	if err := json.Unmarshal(env.Data, respData); err != nil {
		return nil, fmt.Errorf("decode response data: %w", err)
	}
	return resp.Header, nil
}
