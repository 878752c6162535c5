package golemio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/samvad-hq/golemio-go/pkg/httpclient"
)

const (
	// ProductionHost serves the public Golemio API.
	ProductionHost = "api.golemio.cz"
	// StagingHost serves the Golemio test environment with the same API surface.
	StagingHost = "rabin.golemio.cz"
	// DefaultAPIVersion is the path prefix used when Options.APIVersion is empty.
	DefaultAPIVersion = "v2"
	// AccessTokenHeader carries the access key on every request.
	AccessTokenHeader = "X-Access-Token"

	defaultTimeout = 30 * time.Second

	acceptJSON     = "application/json"
	acceptProtobuf = "application/x-protobuf"
)

// Options configures a Client. The zero value targets the production host over
// HTTPS with API version v2.
type Options struct {
	// APIVersion is the path prefix, e.g. "v2".
	APIVersion string
	// Staging selects StagingHost instead of ProductionHost.
	Staging bool
	// Insecure switches the protocol from https to http.
	Insecure bool
	// Host overrides the host selected by Staging (host[:port], no scheme).
	Host string
	// Timeout bounds each request when HTTPClient is not supplied.
	Timeout time.Duration
	// HTTPClient replaces the default resty transport.
	HTTPClient httpclient.Client
	// Logger receives per-request debug records.
	Logger Logger
}

func normalizeOptions(opts Options) (Options, bool) {
	opts.APIVersion = strings.Trim(strings.TrimSpace(opts.APIVersion), "/")
	if opts.APIVersion == "" {
		opts.APIVersion = DefaultAPIVersion
	}
	opts.Host = strings.TrimSpace(opts.Host)
	opts.Host = strings.TrimPrefix(strings.TrimPrefix(opts.Host, "https://"), "http://")
	opts.Host = strings.TrimSuffix(opts.Host, "/")
	if opts.Host == "" {
		opts.Host = ProductionHost
		if opts.Staging {
			opts.Host = StagingHost
		}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	owned := false
	if opts.HTTPClient == nil {
		opts.HTTPClient = httpclient.NewRestyClient(opts.Timeout)
		owned = true
	}
	opts.Logger = ensureLogger(opts.Logger)
	return opts, owned
}

// Client calls the Golemio REST API. It is safe for concurrent use; the access
// key can be rotated at any time with UpdateAccessKey.
type Client struct {
	http       httpclient.Client
	ownsHTTP   bool
	log        Logger
	protocol   string
	host       string
	apiVersion string
	key        atomic.Pointer[string]
	closed     atomic.Bool
}

// New builds a client that authenticates with accessKey.
func New(accessKey string, opts Options) *Client {
	opts, owned := normalizeOptions(opts)

	protocol := "https"
	if opts.Insecure {
		protocol = "http"
	}

	c := &Client{
		http:       opts.HTTPClient,
		ownsHTTP:   owned,
		log:        opts.Logger,
		protocol:   protocol,
		host:       opts.Host,
		apiVersion: opts.APIVersion,
	}
	c.UpdateAccessKey(accessKey)
	return c
}

// UpdateAccessKey replaces the key sent with subsequent requests. Requests
// already in flight keep the key they started with.
func (c *Client) UpdateAccessKey(key string) {
	key = strings.TrimSpace(key)
	c.key.Store(&key)
}

// AccessKey returns the key currently attached to requests.
func (c *Client) AccessKey() string {
	if k := c.key.Load(); k != nil {
		return *k
	}
	return ""
}

// Host returns the API host the client talks to.
func (c *Client) Host() string { return c.host }

// APIVersion returns the version path prefix.
func (c *Client) APIVersion() string { return c.apiVersion }

// BaseURL returns protocol://host/version.
func (c *Client) BaseURL() string {
	return c.protocol + "://" + c.host + "/" + c.apiVersion
}

// URL builds the request URL for path with the encoded params appended.
func (c *Client) URL(path string, params *Params) string {
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.BaseURL() + path
	if q := params.Encode(); q != "" {
		u += "?" + q
	}
	return u
}

// Close releases idle connections held by the default transport. A transport
// passed in through Options.HTTPClient is left open for its owner. Calling it
// more than once is harmless.
func (c *Client) Close() error {
	if c == nil || !c.closed.CompareAndSwap(false, true) || !c.ownsHTTP {
		return nil
	}
	if closer, ok := c.http.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Get calls path and returns the decoded JSON body unchanged. Numbers are kept
// as json.Number.
func (c *Client) Get(ctx context.Context, path string, params *Params) (any, error) {
	body, err := c.fetch(ctx, path, params, acceptJSON)
	if err != nil {
		return nil, err
	}
	return decodeJSON(path, body)
}

// GetRaw calls path and returns the body bytes without decoding.
func (c *Client) GetRaw(ctx context.Context, path string, params *Params) ([]byte, error) {
	return c.fetch(ctx, path, params, acceptProtobuf)
}

func (c *Client) fetch(ctx context.Context, path string, params *Params, accept string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	headers := map[string]string{"Accept": accept}
	if key := c.AccessKey(); key != "" {
		headers[AccessTokenHeader] = key
	}

	start := time.Now()
	resp, err := c.http.Get(ctx, c.URL(path, params), headers)
	if err != nil {
		c.log.WarnObj("golemio request failed", "golemio_request", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
		return nil, &Error{Kind: ErrTransport, Path: path, Err: err}
	}

	status := resp.StatusCode()
	c.log.DebugObj("golemio request completed", "golemio_request", map[string]any{
		"path":       path,
		"status":     status,
		"bytes":      len(resp.Body()),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	if status < 200 || status > 299 {
		return nil, newStatusError(path, resp)
	}
	return resp.Body(), nil
}

func decodeJSON(path string, body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &Error{Kind: ErrDecode, Path: path, Message: "invalid json body", Err: err}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			err = fmt.Errorf("unexpected data after json value at offset %d", dec.InputOffset())
		}
		return nil, &Error{Kind: ErrDecode, Path: path, Message: "trailing data after json body", Err: err}
	}
	return v, nil
}
