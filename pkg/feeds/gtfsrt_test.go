package feeds

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"google.golang.org/protobuf/proto"

	"github.com/samvad-hq/golemio-go/internal/domain"
	"github.com/samvad-hq/golemio-go/pkg/golemio"
)

type fakeDecoder struct {
	feed  *gtfs.FeedMessage
	err   error
	kinds []golemio.FeedKind
}

func (f *fakeDecoder) DecodeFeed(_ context.Context, kind golemio.FeedKind) (*gtfs.FeedMessage, error) {
	f.kinds = append(f.kinds, kind)
	return f.feed, f.err
}

func testFeed() *gtfs.FeedMessage {
	return &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Timestamp:           proto.Uint64(1714550400),
		},
		Entity: []*gtfs.FeedEntity{
			{
				Id: proto.String("tu-1"),
				TripUpdate: &gtfs.TripUpdate{
					Trip:      &gtfs.TripDescriptor{TripId: proto.String("22_1"), RouteId: proto.String("L22")},
					Vehicle:   &gtfs.VehicleDescriptor{Id: proto.String("service-3-9012")},
					Timestamp: proto.Uint64(1714550390),
				},
				Vehicle: &gtfs.VehiclePosition{
					Trip:      &gtfs.TripDescriptor{TripId: proto.String("22_1"), RouteId: proto.String("L22")},
					Timestamp: proto.Uint64(1714550395),
				},
			},
			{
				Id: proto.String("veh-9"),
				Vehicle: &gtfs.VehiclePosition{
					Trip:    &gtfs.TripDescriptor{TripId: proto.String("9_4"), RouteId: proto.String("L9")},
					Vehicle: &gtfs.VehicleDescriptor{Id: proto.String("service-3-8411")},
				},
			},
			{
				Id: proto.String("alert-1"),
				Alert: &gtfs.Alert{
					InformedEntity: []*gtfs.EntitySelector{{RouteId: proto.String("L22")}, {RouteId: proto.String("L991")}},
				},
			},
			{Id: proto.String("gone"), IsDeleted: proto.Bool(true)},
			{Id: proto.String("empty")},
		},
	}
}

func TestGTFSRTFetcherConvertsEntities(t *testing.T) {
	dec := &fakeDecoder{feed: testFeed()}
	f := NewGTFSRTFetcher(dec, golemio.FeedPID)

	got, err := f.Fetch(context.Background(), Source{ID: "pid", Kind: golemio.FeedPID})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(dec.kinds) != 1 || dec.kinds[0] != golemio.FeedPID {
		t.Fatalf("decoded kinds = %v", dec.kinds)
	}

	want := []domain.Entity{
		{ID: "tu-1", Feed: "pid_feed", Type: domain.EntityTripUpdate, TripID: "22_1", RouteIDs: []string{"L22"},
			VehicleID: "service-3-9012", Timestamp: time.Unix(1714550395, 0).UTC()},
		{ID: "veh-9", Feed: "pid_feed", Type: domain.EntityVehicle, TripID: "9_4", RouteIDs: []string{"L9"},
			VehicleID: "service-3-8411", Timestamp: time.Unix(1714550400, 0).UTC()},
		{ID: "alert-1", Feed: "pid_feed", Type: domain.EntityAlert, RouteIDs: []string{"L22", "L991"}},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(domain.Entity{}, "Payload")); diff != "" {
		t.Fatalf("entities mismatch (-want +got):\n%s", diff)
	}

	var payload map[string]any
	if err := json.Unmarshal(got[1].Payload, &payload); err != nil {
		t.Fatalf("payload is not json: %v", err)
	}
	if payload["id"] != "veh-9" {
		t.Fatalf("payload id = %v", payload["id"])
	}
	if _, ok := payload["vehicle"]; !ok {
		t.Fatalf("payload misses vehicle: %s", got[1].Payload)
	}
}

func TestGTFSRTFetcherFiltersRoutes(t *testing.T) {
	f := NewGTFSRTFetcher(&fakeDecoder{feed: testFeed()}, golemio.FeedPID)

	got, err := f.Fetch(context.Background(), Source{ID: "pid", Kind: golemio.FeedPID, RouteIDs: []string{"L991"}})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 1 || got[0].ID != "alert-1" {
		t.Fatalf("expected only the alert to pass the filter, got %+v", got)
	}
}

func TestGTFSRTFetcherWrapsClientErrors(t *testing.T) {
	f := NewGTFSRTFetcher(&fakeDecoder{err: golemio.ErrUnauthorized}, golemio.FeedAlerts)

	_, err := f.Fetch(context.Background(), Source{ID: "alerts", Kind: golemio.FeedAlerts})
	if !errors.Is(err, golemio.ErrUnauthorized) {
		t.Fatalf("expected unauthorized to propagate, got %v", err)
	}
}

func TestFetcherRegistry(t *testing.T) {
	dec := &fakeDecoder{feed: testFeed()}
	reg := DefaultFetcherRegistry(dec)

	for _, kind := range golemio.FeedKinds {
		f, err := reg.FetcherFor(Source{ID: "x", Kind: kind})
		if err != nil {
			t.Fatalf("FetcherFor(%s): %v", kind, err)
		}
		if f.Kind() != string(kind) {
			t.Fatalf("fetcher kind = %s, want %s", f.Kind(), kind)
		}
	}

	pinned := NewGTFSRTFetcher(dec, golemio.FeedAlerts)
	reg = NewFetcherRegistry(map[string]Fetcher{"Special": pinned}, NewGTFSRTFetcher(dec, golemio.FeedPID))
	if f, err := reg.FetcherFor(Source{ID: "special", Kind: golemio.FeedPID}); err != nil || f != pinned {
		t.Fatalf("expected id override, got %v %v", f, err)
	}
	if _, err := reg.FetcherFor(Source{ID: "other", Kind: golemio.FeedAlerts}); err == nil {
		t.Fatalf("expected error for unregistered kind")
	}
	if _, err := reg.FetcherFor(Source{Kind: golemio.FeedPID}); err == nil {
		t.Fatalf("expected error for empty id")
	}
}
