package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// apiPrefix is the versioned REST prefix the platform exposes all endpoints under.
const apiPrefix = "/rest/v1"

// Client issues authenticated REST calls against the text analysis platform and
// decodes the shared response envelope.  Safe for concurrent use.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

// New creates a client for the platform at baseURL.  All requests are bounded
// by requestTimeout.
func New(baseURL string, apiToken string, requestTimeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiToken:   apiToken,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// envelope is the response wrapper shared by every platform endpoint.  A
// non-empty ErrorMessages reports a service-side failure even when the
// transport round trip succeeded.
type envelope struct {
	Payload       json.RawMessage `json:"payload"`
	ErrorMessages []string        `json:"errorMessages"`
}

// Get issues a GET against the endpoint and unmarshals the envelope payload
// into out.
func (c *Client) Get(ctx context.Context, endpoint string, out interface{}) error {
	return c.do(ctx, http.MethodGet, endpoint, "", nil, out)
}

// Put issues a PUT with no body against the endpoint, discarding any payload.
func (c *Client) Put(ctx context.Context, endpoint string) error {
	return c.do(ctx, http.MethodPut, endpoint, "", nil, nil)
}

// Post issues a POST with the supplied raw body and unmarshals the envelope
// payload into out.
func (c *Client) Post(ctx context.Context, endpoint string, contentType string, body []byte, out interface{}) error {
	return c.do(ctx, http.MethodPost, endpoint, contentType, bytes.NewReader(body), out)
}

func (c *Client) do(ctx context.Context, method string, endpoint string, contentType string, body *bytes.Reader, out interface{}) error {
	url := c.baseURL + apiPrefix + "/" + strings.TrimLeft(endpoint, "/")

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, url, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, url, nil)
	}
	if err != nil {
		return &RemoteUnavailableError{Endpoint: endpoint, Err: errors.Wrap(err, "failed to build request")}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiToken != "" {
		req.Header.Set("api-token", c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RemoteUnavailableError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteUnavailableError{
			Endpoint: endpoint,
			Err:      errors.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	raw, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return &RemoteUnavailableError{Endpoint: endpoint, Err: errors.Wrap(err, "failed to read response body")}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &RemoteUnavailableError{Endpoint: endpoint, Err: errors.Wrap(err, "malformed response envelope")}
	}
	if len(env.ErrorMessages) > 0 {
		return &ServiceError{Endpoint: endpoint, Messages: env.ErrorMessages}
	}

	if out != nil && len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, out); err != nil {
			return &RemoteUnavailableError{Endpoint: endpoint, Err: errors.Wrap(err, "malformed response payload")}
		}
	}
	return nil
}

// RemoteUnavailableError indicates that the platform could not be reached or
// returned a response that could not be parsed.
type RemoteUnavailableError struct {
	Endpoint string
	Err      error
}

func (e *RemoteUnavailableError) Error() string {
	return fmt.Sprintf("remote service unavailable (%s): %v", e.Endpoint, e.Err)
}

func (e *RemoteUnavailableError) Unwrap() error {
	return e.Err
}

// ServiceError indicates the platform answered but reported one or more error
// messages in the response envelope.
type ServiceError struct {
	Endpoint string
	Messages []string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("remote service error (%s): %s", e.Endpoint, strings.Join(e.Messages, "; "))
}
