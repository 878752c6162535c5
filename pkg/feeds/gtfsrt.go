package feeds

import (
	"context"
	"fmt"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/samvad-hq/golemio-go/internal/domain"
	"github.com/samvad-hq/golemio-go/pkg/golemio"
)

type gtfsrtFetcher struct {
	client FeedDecoder
	kind   golemio.FeedKind
}

// NewGTFSRTFetcher decodes the binary feed of the given kind.
func NewGTFSRTFetcher(client FeedDecoder, kind golemio.FeedKind) Fetcher {
	return &gtfsrtFetcher{client: client, kind: kind}
}

func (f *gtfsrtFetcher) Kind() string { return string(f.kind) }

func (f *gtfsrtFetcher) Fetch(ctx context.Context, src Source) ([]domain.Entity, error) {
	if f.client == nil {
		return nil, fmt.Errorf("fetch %s: client is nil", src.ID)
	}

	feed, err := f.client.DecodeFeed(ctx, f.kind)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src.ID, err)
	}

	entities, err := entitiesFromFeed(f.kind, feed)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", src.ID, err)
	}

	out := entities[:0]
	for _, e := range entities {
		if src.MatchesRoutes(e.RouteIDs) {
			out = append(out, e)
		}
	}
	return out, nil
}

var payloadMarshaler = protojson.MarshalOptions{UseProtoNames: true}

// entitiesFromFeed flattens a feed message. Deleted entities are dropped.
// Entities without their own timestamp inherit the header's, except alerts,
// which carry none and stay stable across fetches.
func entitiesFromFeed(kind golemio.FeedKind, feed *gtfs.FeedMessage) ([]domain.Entity, error) {
	headerTS := feed.GetHeader().GetTimestamp()
	out := make([]domain.Entity, 0, len(feed.GetEntity()))

	for _, ent := range feed.GetEntity() {
		if ent == nil || ent.GetIsDeleted() {
			continue
		}

		e := domain.Entity{ID: ent.GetId(), Feed: string(kind)}
		var ts uint64

		if tu := ent.GetTripUpdate(); tu != nil {
			e.Type = domain.EntityTripUpdate
			e.TripID = tu.GetTrip().GetTripId()
			e.RouteIDs = appendRoute(e.RouteIDs, tu.GetTrip().GetRouteId())
			e.VehicleID = tu.GetVehicle().GetId()
			ts = max(ts, tu.GetTimestamp())
		}
		if vp := ent.GetVehicle(); vp != nil {
			if e.Type == "" {
				e.Type = domain.EntityVehicle
			}
			if e.TripID == "" {
				e.TripID = vp.GetTrip().GetTripId()
			}
			e.RouteIDs = appendRoute(e.RouteIDs, vp.GetTrip().GetRouteId())
			if id := vp.GetVehicle().GetId(); id != "" {
				e.VehicleID = id
			}
			ts = max(ts, vp.GetTimestamp())
		}
		if al := ent.GetAlert(); al != nil && e.Type == "" {
			e.Type = domain.EntityAlert
			for _, sel := range al.GetInformedEntity() {
				e.RouteIDs = appendRoute(e.RouteIDs, sel.GetRouteId())
				e.RouteIDs = appendRoute(e.RouteIDs, sel.GetTrip().GetRouteId())
			}
		}
		if e.Type == "" {
			continue
		}

		if ts == 0 && e.Type != domain.EntityAlert {
			ts = headerTS
		}
		if ts > 0 {
			e.Timestamp = time.Unix(int64(ts), 0).UTC()
		}

		payload, err := payloadMarshaler.Marshal(ent)
		if err != nil {
			return nil, fmt.Errorf("marshal entity %q: %w", ent.GetId(), err)
		}
		e.Payload = payload

		out = append(out, e)
	}
	return out, nil
}

func appendRoute(routes []string, id string) []string {
	if id == "" {
		return routes
	}
	for _, r := range routes {
		if r == id {
			return routes
		}
	}
	return append(routes, id)
}
