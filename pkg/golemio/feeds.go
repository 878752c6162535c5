package golemio

import (
	"context"
	"fmt"
	"strings"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// FeedKind names one of the GTFS-realtime protobuf feeds.
type FeedKind string

const (
	FeedTripUpdates      FeedKind = "trip_updates"
	FeedVehiclePositions FeedKind = "vehicle_positions"
	// FeedPID combines trip updates and vehicle positions with PID extensions.
	FeedPID    FeedKind = "pid_feed"
	FeedAlerts FeedKind = "alerts"
)

// FeedKinds lists every supported feed.
var FeedKinds = []FeedKind{FeedTripUpdates, FeedVehiclePositions, FeedPID, FeedAlerts}

// ParseFeedKind accepts the canonical names and their dashed spellings.
func ParseFeedKind(s string) (FeedKind, error) {
	k := FeedKind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !k.Valid() {
		return "", fmt.Errorf("unknown feed kind %q", s)
	}
	return k, nil
}

// Valid reports whether k is a known feed.
func (k FeedKind) Valid() bool {
	for _, known := range FeedKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Path returns the API path of the feed.
func (k FeedKind) Path() string {
	return "/vehiclepositions/gtfsrt/" + string(k) + ".pb"
}

func (k FeedKind) String() string { return string(k) }

// Feed downloads a GTFS-realtime feed and returns the protobuf bytes undecoded.
func (c *Client) Feed(ctx context.Context, kind FeedKind) ([]byte, error) {
	if !kind.Valid() {
		return nil, invalidRequest("unknown feed kind %q", string(kind))
	}
	return c.GetRaw(ctx, kind.Path(), nil)
}

// TripUpdatesFeed returns the trip updates feed as protobuf bytes.
func (c *Client) TripUpdatesFeed(ctx context.Context) ([]byte, error) {
	return c.Feed(ctx, FeedTripUpdates)
}

// VehiclePositionsFeed returns the vehicle positions feed as protobuf bytes.
func (c *Client) VehiclePositionsFeed(ctx context.Context) ([]byte, error) {
	return c.Feed(ctx, FeedVehiclePositions)
}

// PIDFeed returns the combined PID feed as protobuf bytes.
func (c *Client) PIDFeed(ctx context.Context) ([]byte, error) {
	return c.Feed(ctx, FeedPID)
}

// AlertsFeed returns the service alerts feed as protobuf bytes.
func (c *Client) AlertsFeed(ctx context.Context) ([]byte, error) {
	return c.Feed(ctx, FeedAlerts)
}

// DecodeFeed downloads a feed and unmarshals it into a FeedMessage.
func (c *Client) DecodeFeed(ctx context.Context, kind FeedKind) (*gtfs.FeedMessage, error) {
	raw, err := c.Feed(ctx, kind)
	if err != nil {
		return nil, err
	}
	feed, err := UnmarshalFeed(raw)
	if err != nil {
		return nil, &Error{Kind: ErrDecode, Path: kind.Path(), Message: "invalid gtfs-realtime feed", Err: err}
	}
	return feed, nil
}

// UnmarshalFeed decodes GTFS-realtime protobuf bytes.
func UnmarshalFeed(raw []byte) (*gtfs.FeedMessage, error) {
	var feed gtfs.FeedMessage
	if err := proto.Unmarshal(raw, &feed); err != nil {
		return nil, err
	}
	return &feed, nil
}
