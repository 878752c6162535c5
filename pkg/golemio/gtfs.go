package golemio

import (
	"context"
	"net/url"
	"strings"
)

const (
	defaultListLimit  = 10
	defaultStopsLimit = 10000
)

// Page selects a window of a list endpoint. A zero Limit uses the endpoint default.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) apply(params *Params, defaultLimit int) {
	limit := p.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	params.Set("limit", limit)
	params.Set("offset", offset)
}

// ServicesQuery filters /gtfs/services.
type ServicesQuery struct {
	// Date restricts services to those running on YYYY-MM-DD.
	Date string
	Page
}

// TripsQuery filters /gtfs/trips.
type TripsQuery struct {
	StopID string
	Date   string
	Page
}

// TripQuery selects the sub-resources embedded in a single trip.
type TripQuery struct {
	IncludeShapes    bool
	IncludeStops     bool
	IncludeStopTimes bool
	IncludeService   bool
	IncludeRoute     bool
	Date             string
}

// StopsQuery filters /gtfs/stops. Every list is sent as repeated keys.
type StopsQuery struct {
	Names  []string
	IDs    []string
	ASWIDs []string
	CISIDs []int
	Page
}

// StopTimesQuery filters /gtfs/stoptimes/{stopId}.
type StopTimesQuery struct {
	Date string
	// TimeFrom and TimeTo are HH:MM:SS bounds.
	TimeFrom    string
	TimeTo      string
	IncludeStop bool
	Page
}

// Services lists GTFS services.
func (c *Client) Services(ctx context.Context, q ServicesQuery) (any, error) {
	params := NewParams()
	q.Page.apply(params, defaultListLimit)
	setNonEmpty(params, "date", q.Date)
	return c.Get(ctx, "/gtfs/services", params)
}

// Routes lists GTFS routes.
func (c *Client) Routes(ctx context.Context, page Page) (any, error) {
	params := NewParams()
	page.apply(params, defaultListLimit)
	return c.Get(ctx, "/gtfs/routes", params)
}

// Route returns a single route.
func (c *Client) Route(ctx context.Context, routeID string) (any, error) {
	path, err := resourcePath("/gtfs/routes", "route", routeID)
	if err != nil {
		return nil, err
	}
	return c.Get(ctx, path, nil)
}

// Trips lists GTFS trips.
func (c *Client) Trips(ctx context.Context, q TripsQuery) (any, error) {
	params := NewParams()
	q.Page.apply(params, defaultListLimit)
	setNonEmpty(params, "stopId", q.StopID)
	setNonEmpty(params, "date", q.Date)
	return c.Get(ctx, "/gtfs/trips", params)
}

// Trip returns a single trip. The include flags are always sent.
func (c *Client) Trip(ctx context.Context, tripID string, q TripQuery) (any, error) {
	path, err := resourcePath("/gtfs/trips", "trip", tripID)
	if err != nil {
		return nil, err
	}
	params := NewParams().
		Set("includeShapes", q.IncludeShapes).
		Set("includeStops", q.IncludeStops).
		Set("includeStopTimes", q.IncludeStopTimes).
		Set("includeService", q.IncludeService).
		Set("includeRoute", q.IncludeRoute)
	setNonEmpty(params, "date", q.Date)
	return c.Get(ctx, path, params)
}

// Shape returns the points of a shape.
func (c *Client) Shape(ctx context.Context, shapeID string) (any, error) {
	path, err := resourcePath("/gtfs/shapes", "shape", shapeID)
	if err != nil {
		return nil, err
	}
	return c.Get(ctx, path, nil)
}

// Stops queries GTFS stops by name, GTFS id or ASW / CIS identifiers.
func (c *Client) Stops(ctx context.Context, q StopsQuery) (any, error) {
	params := NewParams()
	q.Page.apply(params, defaultStopsLimit)
	params.Set("names", q.Names)
	params.Set("ids", q.IDs)
	params.Set("aswIds", q.ASWIDs)
	params.Set("cisIds", q.CISIDs)
	return c.Get(ctx, "/gtfs/stops", params)
}

// Stop returns a single stop.
func (c *Client) Stop(ctx context.Context, stopID string) (any, error) {
	path, err := resourcePath("/gtfs/stops", "stop", stopID)
	if err != nil {
		return nil, err
	}
	return c.Get(ctx, path, nil)
}

// StopTimes lists the scheduled stop times at stopID.
func (c *Client) StopTimes(ctx context.Context, stopID string, q StopTimesQuery) (any, error) {
	path, err := resourcePath("/gtfs/stoptimes", "stop", stopID)
	if err != nil {
		return nil, err
	}
	params := NewParams().Set("includeStop", q.IncludeStop)
	q.Page.apply(params, defaultStopsLimit)
	setNonEmpty(params, "date", q.Date)
	setNonEmpty(params, "timeFrom", q.TimeFrom)
	setNonEmpty(params, "timeTo", q.TimeTo)
	return c.Get(ctx, path, params)
}

func resourcePath(collection, what, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", invalidRequest("%s id is empty", what)
	}
	return collection + "/" + url.PathEscape(id), nil
}

func setNonEmpty(params *Params, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		params.Set(key, value)
	}
}
