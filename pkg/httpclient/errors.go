package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// StatusError describes a non-2xx response from an upstream API.
type StatusError struct {
	Upstream   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s returned status %d", e.Upstream, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Upstream, e.StatusCode, e.Message)
}

// IsClientError reports whether the upstream rejected the request itself (4xx).
func (e *StatusError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// upstreamMessage matches the `{"message": "..."}` error bodies of JSON APIs.
type upstreamMessage struct {
	Message string `json:"message"`
}

// ParseResponseError consumes and closes resp.Body and returns a *StatusError.
// The message is taken from a JSON `message` field when present, otherwise from
// the raw body (capped at 1 KiB).
func ParseResponseError(resp *http.Response, upstream string) error {
	defer drain(resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
	if err != nil {
		return &StatusError{Upstream: upstream, StatusCode: resp.StatusCode}
	}

	var msg upstreamMessage
	if json.Unmarshal(body, &msg) == nil && msg.Message != "" {
		return &StatusError{Upstream: upstream, StatusCode: resp.StatusCode, Message: msg.Message}
	}

	return &StatusError{Upstream: upstream, StatusCode: resp.StatusCode, Message: string(body)}
}

// DecodeJSON decodes a 2xx response body into dst and closes the body.
// Non-2xx responses are converted with ParseResponseError.
func DecodeJSON(resp *http.Response, upstream string, dst any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ParseResponseError(resp, upstream)
	}
	defer drain(resp.Body)

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return &DecodeError{Upstream: upstream, Err: err}
	}
	return nil
}

// DecodeError reports a malformed response body.
type DecodeError struct {
	Upstream string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.Upstream, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
