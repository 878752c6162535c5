package golemio

import (
	"context"
	"time"
)

const (
	defaultPositionsLimit    = 10000
	defaultBoardLimit        = 20
	defaultBoardMinutesAfter = 180
	defaultBoardTimezone     = "Europe/Prague"
)

// BoardMode selects what a departure board lists.
type BoardMode string

const (
	ModeDepartures BoardMode = "departures"
	ModeArrivals   BoardMode = "arrivals"
	ModeMixed      BoardMode = "mixed"
)

// BoardOrder selects how departure board rows are sorted.
type BoardOrder string

const (
	// OrderReal sorts by predicted time.
	OrderReal BoardOrder = "real"
	// OrderTimetable sorts by scheduled time.
	OrderTimetable BoardOrder = "timetable"
)

// BoardFilter collapses departure board rows per route or heading.
type BoardFilter string

const (
	FilterNone                      BoardFilter = "none"
	FilterRouteOnce                 BoardFilter = "routeOnce"
	FilterRouteHeadingOnce          BoardFilter = "routeHeadingOnce"
	FilterRouteOnceFill             BoardFilter = "routeOnceFill"
	FilterRouteHeadingOnceFill      BoardFilter = "routeHeadingOnceFill"
	FilterRouteHeadingOnceNoGap     BoardFilter = "routeHeadingOnceNoGap"
	FilterRouteHeadingOnceNoGapFill BoardFilter = "routeHeadingOnceNoGapFill"
)

// BoardSkip drops a class of connections from a departure board.
type BoardSkip string

const (
	SkipUntracked  BoardSkip = "untracked"
	SkipCanceled   BoardSkip = "canceled"
	SkipAtStop     BoardSkip = "atStop"
	SkipOnlyAtStop BoardSkip = "onlyAtStop"
)

// VehiclePositionsQuery filters /vehiclepositions.
type VehiclePositionsQuery struct {
	IncludeNotTracking bool
	IncludeNotPublic   bool
	IncludePositions   bool
	// CISTripNumber is sent when non-zero.
	CISTripNumber     int
	PreferredTimezone string
	RouteID           string
	RouteShortName    string
	// UpdatedSince is sent as RFC 3339 when non-zero.
	UpdatedSince time.Time
	Page
}

// DepartureBoardsQuery filters /pid/departureboards. Nil pointer fields fall
// back to the documented defaults: MinutesAfter 180, AirCondition true.
type DepartureBoardsQuery struct {
	IDs    []string
	ASWIDs []string
	CISIDs []int
	Names  []string

	MinutesBefore *int
	MinutesAfter  *int
	TimeFrom      time.Time

	IncludeMetroTrains bool
	AirCondition       *bool
	PreferredTimezone  string
	Mode               BoardMode
	Order              BoardOrder
	Filter             BoardFilter
	Skip               []BoardSkip
	Total              *int
	Page
}

// VehiclePositions lists current vehicle positions as GeoJSON features.
func (c *Client) VehiclePositions(ctx context.Context, q VehiclePositionsQuery) (any, error) {
	params := NewParams().
		Set("includeNotTracking", q.IncludeNotTracking).
		Set("includeNotPublic", q.IncludeNotPublic).
		Set("includePositions", q.IncludePositions)
	q.Page.apply(params, defaultPositionsLimit)
	if q.CISTripNumber != 0 {
		params.Set("cisTripNumber", q.CISTripNumber)
	}
	setNonEmpty(params, "preferredTimezone", q.PreferredTimezone)
	setNonEmpty(params, "routeId", q.RouteID)
	setNonEmpty(params, "routeShortName", q.RouteShortName)
	params.Set("updatedSince", q.UpdatedSince)
	return c.Get(ctx, "/vehiclepositions", params)
}

// DepartureBoards returns departure boards for one or more stops.
func (c *Client) DepartureBoards(ctx context.Context, q DepartureBoardsQuery) (any, error) {
	return c.Get(ctx, "/pid/departureboards", q.params())
}

func (q DepartureBoardsQuery) params() *Params {
	params := NewParams()
	q.Page.apply(params, defaultBoardLimit)

	params.Set("ids", q.IDs)
	params.Set("aswIds", q.ASWIDs)
	params.Set("cisIds", q.CISIDs)
	params.Set("names", q.Names)

	params.Set("minutesBefore", q.MinutesBefore)
	minutesAfter := defaultBoardMinutesAfter
	if q.MinutesAfter != nil {
		minutesAfter = *q.MinutesAfter
	}
	params.Set("minutesAfter", minutesAfter)
	params.Set("timeFrom", q.TimeFrom)

	airCondition := true
	if q.AirCondition != nil {
		airCondition = *q.AirCondition
	}
	params.Set("includeMetroTrains", q.IncludeMetroTrains)
	params.Set("airCondition", airCondition)

	tz := q.PreferredTimezone
	if tz == "" {
		tz = defaultBoardTimezone
	}
	mode := q.Mode
	if mode == "" {
		mode = ModeDepartures
	}
	order := q.Order
	if order == "" {
		order = OrderReal
	}
	params.Set("preferredTimezone", tz)
	params.Set("mode", string(mode))
	params.Set("order", string(order))

	if q.Filter != "" {
		params.Set("filter", string(q.Filter))
	}
	params.Set("skip", q.Skip)
	params.Set("total", q.Total)
	return params
}

// InfoTexts lists the free-text notices shown on PID boards.
func (c *Client) InfoTexts(ctx context.Context) (any, error) {
	return c.Get(ctx, "/pid/infotexts", nil)
}
