package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/samvad-hq/golemio-go/internal/config"
	"github.com/samvad-hq/golemio-go/pkg/publishers"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRelayDeliversFeedEntitiesToWebhook(t *testing.T) {
	feed, err := proto.Marshal(&gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{GtfsRealtimeVersion: proto.String("2.0"), Timestamp: proto.Uint64(1714550400)},
		Entity: []*gtfs.FeedEntity{{
			Id:      proto.String("veh-1"),
			Vehicle: &gtfs.VehiclePosition{Trip: &gtfs.TripDescriptor{RouteId: proto.String("L22")}},
		}},
	})
	if err != nil {
		t.Fatalf("marshal feed: %v", err)
	}

	golemioSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/vehiclepositions/gtfsrt/vehicle_positions.pb" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-Access-Token") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write(feed)
	}))
	defer golemioSrv.Close()

	var (
		mu     sync.Mutex
		events []publishers.Event
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hookSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var evt publishers.Event
		if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
			t.Errorf("decode event: %v", err)
		}
		mu.Lock()
		events = append(events, evt)
		mu.Unlock()
		cancel()
	}))
	defer hookSrv.Close()

	dir := t.TempDir()
	cfg := &config.Config{ClientConfig: config.ClientConfig{
		AccessKey:      "secret",
		APIVersion:     "v2",
		Insecure:       true,
		Host:           golemioSrv.URL,
		RequestTimeout: 2 * time.Second,
	}, RelayConfig: config.RelayConfig{
		FeedsFile: writeFile(t, dir, "feeds.yaml", `
sources:
  - id: pid-vehicles
    name: PID vehicles
    kind: vehicle_positions
`),
		PublishersFile: writeFile(t, dir, "publishers.yaml", `
publishers:
  - id: hook
    type: http
    http:
      url: `+hookSrv.URL+`
`),
		PollInterval: time.Hour,
		StorageType:  "bbolt",
		BBoltPath:    filepath.Join(dir, "relay.db"),
	}}

	relay, err := NewRelay(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("NewRelay: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("relay did not deliver an event")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	got := events[0]
	if got.SourceID != "pid-vehicles" || got.Entity.ID != "veh-1" || got.Entity.Feed != "vehicle_positions" {
		t.Fatalf("unexpected event %+v", got)
	}
}

func TestNewRelayRequiresPublishers(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{RelayConfig: config.RelayConfig{
		FeedsFile: writeFile(t, dir, "feeds.yaml", "sources:\n  - {id: a, name: a, kind: alerts}\n"),
		PublishersFile: writeFile(t, dir, "publishers.yaml",
			"publishers:\n  - id: off\n    type: http\n    enabled: false\n    http: {url: 'http://localhost'}\n"),
		StorageType: "none",
	}}
	if _, err := NewRelay(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error when every publisher is disabled")
	}

	if _, err := NewRelay(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}
