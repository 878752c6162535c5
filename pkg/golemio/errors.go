package golemio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/samvad-hq/golemio-go/pkg/httpclient"
)

// Error kinds. Every error returned by Client wraps exactly one of them.
var (
	// ErrUnauthorized is returned for HTTP 401: the access key is invalid or missing.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned for HTTP 404: the requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnexpectedStatus is returned for any other non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrTransport is returned when the request produced no HTTP response.
	ErrTransport = errors.New("transport failure")
	// ErrDecode is returned when a 2xx body cannot be parsed.
	ErrDecode = errors.New("decode response")
	// ErrInvalidRequest is returned before any I/O when arguments are unusable.
	ErrInvalidRequest = errors.New("invalid request")
)

const maxMessageBytes = 512

// Error describes a failed API call.
type Error struct {
	Kind       error
	StatusCode int
	Path       string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("golemio: ")
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("request failed")
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the underlying cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// IsUnauthorized reports whether err was caused by an HTTP 401.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

// IsNotFound reports whether err was caused by an HTTP 404.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func newStatusError(path string, resp httpclient.Response) *Error {
	status := resp.StatusCode()
	e := &Error{
		StatusCode: status,
		Path:       path,
		Message:    upstreamMessage(resp),
	}
	switch status {
	case http.StatusUnauthorized:
		e.Kind = ErrUnauthorized
		if e.Message == "" {
			e.Message = "invalid or missing access key"
		}
	case http.StatusNotFound:
		e.Kind = ErrNotFound
	default:
		e.Kind = ErrUnexpectedStatus
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

func invalidRequest(format string, args ...any) *Error {
	return &Error{Kind: ErrInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// upstreamMessage extracts a readable reason from an error body. Golemio answers
// with {"error_message": ...}; the gateway in front of it answers with HTML pages.
func upstreamMessage(resp httpclient.Response) string {
	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 {
		return ""
	}

	var contentType string
	if h := resp.Header(); h != nil {
		contentType = strings.ToLower(h.Get("Content-Type"))
	}

	if strings.Contains(contentType, "json") || body[0] == '{' {
		var payload struct {
			ErrorMessage string `json:"error_message"`
			Message      string `json:"message"`
			Error        string `json:"error"`
		}
		if err := json.Unmarshal(body, &payload); err == nil {
			if msg := firstNonEmpty(payload.ErrorMessage, payload.Message, payload.Error); msg != "" {
				return msg
			}
		}
	}

	if strings.Contains(contentType, "html") || bytes.HasPrefix(bytes.ToLower(body), []byte("<!doctype html")) || bytes.HasPrefix(bytes.ToLower(body), []byte("<html")) {
		if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
			if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
				return title
			}
			if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
				return h1
			}
		}
	}

	return bodySnippet(body)
}

func bodySnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxMessageBytes {
		return s[:maxMessageBytes] + "..."
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
