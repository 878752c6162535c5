// Package golemio is a client for the Golemio open-data API of Prague Integrated
// Transport (PID).
//
// It covers the GTFS static endpoints (services, routes, trips, shapes, stops,
// stop times), realtime vehicle positions, PID departure boards and info texts,
// and the four GTFS-realtime protobuf feeds:
//
//	c := golemio.New(os.Getenv("GOLEMIO_ACCESS_KEY"), golemio.Options{})
//	defer c.Close()
//
//	routes, err := c.Routes(ctx, golemio.Page{Limit: 50})
//	if golemio.IsUnauthorized(err) {
//		// rotate the key with c.UpdateAccessKey
//	}
//
// JSON endpoints return the decoded body as-is (maps, slices, json.Number).
// Feed endpoints return raw protobuf bytes; DecodeFeed unmarshals them into
// gtfs.FeedMessage.
package golemio
