package golemio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/samvad-hq/golemio-go/pkg/httpclient"
)

// fakeResponse lets us stub the httpclient.Response interface.
type fakeResponse struct {
	body   []byte
	status int
	header http.Header
}

func (f fakeResponse) Body() []byte        { return f.body }
func (f fakeResponse) StatusCode() int     { return f.status }
func (f fakeResponse) Header() http.Header { return f.header }

// recordingClient captures every request and answers with a canned response.
type recordingClient struct {
	mu      sync.Mutex
	urls    []string
	headers []map[string]string
	resp    fakeResponse
	err     error
	closed  int
}

func (r *recordingClient) Get(_ context.Context, url string, headers map[string]string) (httpclient.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, url)
	r.headers = append(r.headers, headers)
	if r.err != nil {
		return nil, r.err
	}
	return r.resp, nil
}

func (r *recordingClient) Close() error {
	r.closed++
	return nil
}

func (r *recordingClient) lastURL(t *testing.T) string {
	t.Helper()
	if len(r.urls) == 0 {
		t.Fatalf("no request recorded")
	}
	return r.urls[len(r.urls)-1]
}

func newServerClient(t *testing.T, key string, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(key, Options{Host: srv.URL, Insecure: true})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestURLSelectsHostProtocolAndVersion(t *testing.T) {
	params := NewParams().Set("limit", 10).Set("offset", 0)

	cases := []struct {
		name string
		opts Options
		want string
	}{
		{"production", Options{}, "https://api.golemio.cz/v2/gtfs/routes?limit=10&offset=0"},
		{"staging", Options{Staging: true}, "https://rabin.golemio.cz/v2/gtfs/routes?limit=10&offset=0"},
		{"insecure", Options{Insecure: true}, "http://api.golemio.cz/v2/gtfs/routes?limit=10&offset=0"},
		{"version", Options{APIVersion: "/v3/"}, "https://api.golemio.cz/v3/gtfs/routes?limit=10&offset=0"},
		{"host override", Options{Host: "http://127.0.0.1:8080/", Staging: true}, "https://127.0.0.1:8080/v2/gtfs/routes?limit=10&offset=0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := New("", tc.opts)
			defer c.Close()
			if got := c.URL("/gtfs/routes", params); got != tc.want {
				t.Fatalf("URL = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestURLWithoutParamsHasNoQuery(t *testing.T) {
	c := New("k", Options{HTTPClient: &recordingClient{}})
	if got := c.URL("gtfs/routes/L991", nil); got != "https://api.golemio.cz/v2/gtfs/routes/L991" {
		t.Fatalf("URL = %s", got)
	}
}

func TestUnauthorizedError(t *testing.T) {
	c := newServerClient(t, "bad-key", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error_message":"Unauthorized","error_status":401}`))
	})

	routes, err := c.Routes(context.Background(), Page{})
	if routes != nil {
		t.Fatalf("expected no result, got %v", routes)
	}
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if IsNotFound(err) {
		t.Fatalf("unauthorized error must not match not found")
	}
	if StatusCode(err) != http.StatusUnauthorized {
		t.Fatalf("status = %d", StatusCode(err))
	}
	if !strings.Contains(err.Error(), "Unauthorized") {
		t.Fatalf("error should carry upstream message: %v", err)
	}
}

func TestNotFoundError(t *testing.T) {
	c := newServerClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/gtfs/routes/non_existent_route" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Route(context.Background(), "non_existent_route")
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Path != "/gtfs/routes/non_existent_route" || apiErr.Message != "Not Found" {
		t.Fatalf("unexpected error fields: %+v", apiErr)
	}
}

func TestUnexpectedStatusUsesHTMLTitle(t *testing.T) {
	c := newServerClient(t, "k", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html><head><title>502 Bad Gateway</title></head><body><h1>nginx</h1></body></html>`))
	})

	_, err := c.InfoTexts(context.Background())
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("expected unexpected status, got %v", err)
	}
	if IsUnauthorized(err) || IsNotFound(err) {
		t.Fatalf("generic error matched a specific kind: %v", err)
	}
	if StatusCode(err) != http.StatusBadGateway || !strings.Contains(err.Error(), "502 Bad Gateway") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUnexpectedStatusFallsBackToBodySnippet(t *testing.T) {
	rc := &recordingClient{resp: fakeResponse{status: http.StatusBadRequest, body: []byte(strings.Repeat("x", 600))}}
	c := New("k", Options{HTTPClient: rc})

	_, err := c.Stops(context.Background(), StopsQuery{})
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if len(apiErr.Message) != maxMessageBytes+len("...") {
		t.Fatalf("message length = %d", len(apiErr.Message))
	}
}

func TestUpdateAccessKeyChangesSubsequentHeaders(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	c := newServerClient(t, "first", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get(AccessTokenHeader))
		mu.Unlock()
		_, _ = w.Write([]byte(`[]`))
	})

	ctx := context.Background()
	if _, err := c.Routes(ctx, Page{}); err != nil {
		t.Fatalf("Routes: %v", err)
	}
	c.UpdateAccessKey("second")
	if _, err := c.Routes(ctx, Page{}); err != nil {
		t.Fatalf("Routes: %v", err)
	}

	if len(seen) != 2 || seen[0] != "first" || seen[1] != "second" {
		t.Fatalf("access tokens = %v", seen)
	}
	if c.AccessKey() != "second" {
		t.Fatalf("AccessKey = %q", c.AccessKey())
	}
}

func TestEmptyAccessKeyOmitsHeader(t *testing.T) {
	rc := &recordingClient{resp: fakeResponse{status: http.StatusOK, body: []byte(`[]`)}}
	c := New("", Options{HTTPClient: rc})

	if _, err := c.Routes(context.Background(), Page{}); err != nil {
		t.Fatalf("Routes: %v", err)
	}
	if _, ok := rc.headers[0][AccessTokenHeader]; ok {
		t.Fatalf("empty key should not be sent: %v", rc.headers[0])
	}
	if rc.headers[0]["Accept"] != acceptJSON {
		t.Fatalf("Accept = %q", rc.headers[0]["Accept"])
	}
}

func TestGetReturnsJSONAsIs(t *testing.T) {
	c := newServerClient(t, "", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"route_id":"L22","route_type":0,"is_night":false}]`))
	})

	got, err := c.Routes(context.Background(), Page{})
	if err != nil {
		t.Fatalf("Routes: %v", err)
	}
	list, ok := got.([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("expected one-element list, got %#v", got)
	}
	route := list[0].(map[string]any)
	if route["route_id"] != "L22" || route["route_type"] != json.Number("0") || route["is_night"] != false {
		t.Fatalf("route decoded as %#v", route)
	}
}

func TestInvalidJSONIsDecodeError(t *testing.T) {
	bodies := map[string]string{
		"html":          `<html>`,
		"trailing html": `[1,2] <html>garbage`,
		"two values":    `{"a":1}{"b":2}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			rc := &recordingClient{resp: fakeResponse{status: http.StatusOK, body: []byte(body)}}
			c := New("k", Options{HTTPClient: rc})

			got, err := c.Shape(context.Background(), "L991V1")
			if !errors.Is(err, ErrDecode) {
				t.Fatalf("expected decode error, got %v (value %v)", err, got)
			}
		})
	}
}

func TestTrailingWhitespaceIsAccepted(t *testing.T) {
	rc := &recordingClient{resp: fakeResponse{status: http.StatusOK, body: []byte("[1,2]\n\t ")}}
	c := New("k", Options{HTTPClient: rc})

	got, err := c.Shape(context.Background(), "L991V1")
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	if list, ok := got.([]any); !ok || len(list) != 2 {
		t.Fatalf("decoded %#v", got)
	}
}

func TestTransportErrorKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	rc := &recordingClient{err: cause}
	c := New("k", Options{HTTPClient: rc})

	_, err := c.Trips(context.Background(), TripsQuery{})
	if !errors.Is(err, ErrTransport) || !errors.Is(err, cause) {
		t.Fatalf("expected transport error wrapping cause, got %v", err)
	}
	if StatusCode(err) != 0 {
		t.Fatalf("transport error should carry no status")
	}
}

func TestCancelledContextIsTransportError(t *testing.T) {
	c := newServerClient(t, "k", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Routes(ctx, Page{})
	if !errors.Is(err, ErrTransport) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled transport error, got %v", err)
	}
}

func TestEmptyIdentifierFailsWithoutRequest(t *testing.T) {
	rc := &recordingClient{}
	c := New("k", Options{HTTPClient: rc})
	ctx := context.Background()

	calls := []func() error{
		func() error { _, err := c.Route(ctx, " "); return err },
		func() error { _, err := c.Trip(ctx, "", TripQuery{}); return err },
		func() error { _, err := c.Shape(ctx, ""); return err },
		func() error { _, err := c.Stop(ctx, ""); return err },
		func() error { _, err := c.StopTimes(ctx, "", StopTimesQuery{}); return err },
		func() error { _, err := c.Feed(ctx, FeedKind("bogus")); return err },
	}
	for i, call := range calls {
		if err := call(); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("call %d: expected invalid request, got %v", i, err)
		}
	}
	if len(rc.urls) != 0 {
		t.Fatalf("no request expected, got %v", rc.urls)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New("k", Options{})
	if !c.ownsHTTP {
		t.Fatalf("default transport should be owned by the client")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestCloseLeavesSuppliedTransportOpen(t *testing.T) {
	rc := &recordingClient{resp: fakeResponse{status: http.StatusOK, body: []byte(`{}`)}}
	c := New("k", Options{HTTPClient: rc})
	_ = c.Close()
	if rc.closed != 0 {
		t.Fatalf("caller transport closed %d times", rc.closed)
	}

	other := New("k", Options{HTTPClient: rc})
	if _, err := other.Stop(context.Background(), "U1040Z101P"); err != nil {
		t.Fatalf("shared transport unusable after Close: %v", err)
	}
}

type recordingLogger struct {
	noopLogger
	debug []string
}

func (l *recordingLogger) DebugObj(msg, _ string, _ interface{}) { l.debug = append(l.debug, msg) }

func TestRequestsAreLogged(t *testing.T) {
	log := &recordingLogger{}
	rc := &recordingClient{resp: fakeResponse{status: http.StatusOK, body: []byte(`{}`)}}
	c := New("k", Options{HTTPClient: rc, Logger: log})

	if _, err := c.Stop(context.Background(), "U1040Z101P"); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(log.debug) != 1 {
		t.Fatalf("expected one debug record, got %v", log.debug)
	}
}
