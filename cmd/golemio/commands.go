package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/samvad-hq/golemio-go/pkg/golemio"
)

func addPageFlags(cmd *cobra.Command, page *golemio.Page) {
	cmd.Flags().IntVar(&page.Limit, "limit", 0, "maximum number of items (0 uses the endpoint default)")
	cmd.Flags().IntVar(&page.Offset, "offset", 0, "number of items to skip")
}

func (c *cli) servicesCmd() *cobra.Command {
	var q golemio.ServicesQuery
	cmd := &cobra.Command{
		Use:   "services",
		Short: "List GTFS services",
		Args:  cobra.NoArgs,
		RunE: c.jsonRun(func(ctx context.Context, gc *golemio.Client, _ []string) (any, error) {
			return gc.Services(ctx, q)
		}),
	}
	cmd.Flags().StringVar(&q.Date, "date", "", "only services running on YYYY-MM-DD")
	addPageFlags(cmd, &q.Page)
	return cmd
}

func (c *cli) routesCmd() *cobra.Command {
	var page golemio.Page
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List GTFS routes",
		Args:  cobra.NoArgs,
		RunE: c.jsonRun(func(ctx context.Context, gc *golemio.Client, _ []string) (any, error) {
			return gc.Routes(ctx, page)
		}),
	}
	addPageFlags(cmd, &page)
	return cmd
}

func (c *cli) routeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route ID",
		Short: "Show one GTFS route",
		Args:  cobra.ExactArgs(1),
		RunE: c.jsonRun(func(ctx context.Context, gc *golemio.Client, args []string) (any, error) {
			return gc.Route(ctx, args[0])
		}),
	}
}

func (c *cli) tripsCmd() *cobra.Command {
	var q golemio.TripsQuery
	cmd := &cobra.Command{
		Use:   "trips",
		Short: "List GTFS trips",
		Args:  cobra.NoArgs,
		RunE: c.jsonRun(func(ctx context.Context, gc *golemio.Client, _ []string) (any, error) {
			return gc.Trips(ctx, q)
		}),
	}
	cmd.Flags().StringVar(&q.StopID, "stop-id", "", "only trips serving this stop")
	cmd.Flags().StringVar(&q.Date, "date", "", "only trips running on YYYY-MM-DD")
	addPageFlags(cmd, &q.Page)
	return cmd
}

func (c *cli) tripCmd() *cobra.Command {
	var q golemio.TripQuery
	cmd := &cobra.Command{
		Use:   "trip ID",
		Short: "Show one GTFS trip",
		Args:  cobra.ExactArgs(1),
		RunE: c.jsonRun(func(ctx context.Context, gc *golemio.Client, args []string) (any, error) {
			return gc.Trip(ctx, args[0], q)
		}),
	}
	f := cmd.Flags()
	f.BoolVar(&q.IncludeShapes, "include-shapes", false, "embed the trip shape")
	f.BoolVar(&q.IncludeStops, "include-stops", false, "embed the served stops")
	f.BoolVar(&q.IncludeStopTimes, "include-stop-times", false, "embed stop times")
	f.BoolVar(&q.IncludeService, "include-service", false, "embed the service calendar")
	f.BoolVar(&q.IncludeRoute, "include-route", false, "embed the route")
	f.StringVar(&q.Date, "date", "", "service date YYYY-MM-DD")
	return cmd
}

func (c *cli) shapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shape ID",
		Short: "Show the points of a GTFS shape",
		Args:  cobra.ExactArgs(1),
		RunE: c.jsonRun(func(ctx context.Context, gc *golemio.Client, args []string) (any, error) {
			return gc.Shape(ctx, args[0])
		}),
	}
}

func (c *cli) stopsCmd() *cobra.Command {
	var q golemio.StopsQuery
	cmd := &cobra.Command{
		Use:   "stops",
		Short: "List GTFS stops",
		Args:  cobra.NoArgs,
		RunE: c.jsonRun(func(ctx context.Context, gc *golemio.Client, _ []string) (any, error) {
			return gc.Stops(ctx, q)
		}),
	}
	f := cmd.Flags()
	f.StringSliceVar(&q.Names, "name", nil, "stop name (repeatable)")
	f.StringSliceVar(&q.IDs, "id", nil, "GTFS stop id (repeatable)")
	f.StringSliceVar(&q.ASWIDs, "asw-id", nil, "ASW node id (repeatable)")
	f.IntSliceVar(&q.CISIDs, "cis-id", nil, "CIS stop id (repeatable)")
	addPageFlags(cmd, &q.Page)
	return cmd
}

func (c *cli) stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop ID",
		Short: "Show one GTFS stop",
		Args:  cobra.ExactArgs(1),
		RunE: c.jsonRun(func(ctx context.Context, gc *golemio.Client, args []string) (any, error) {
			return gc.Stop(ctx, args[0])
		}),
	}
}

func (c *cli) stopTimesCmd() *cobra.Command {
	var q golemio.StopTimesQuery
	cmd := &cobra.Command{
		Use:   "stoptimes STOP_ID",
		Short: "List scheduled stop times at a stop",
		Args:  cobra.ExactArgs(1),
		RunE: c.jsonRun(func(ctx context.Context, gc *golemio.Client, args []string) (any, error) {
			return gc.StopTimes(ctx, args[0], q)
		}),
	}
	f := cmd.Flags()
	f.StringVar(&q.Date, "date", "", "service date YYYY-MM-DD")
	f.StringVar(&q.TimeFrom, "from", "", "earliest time HH:MM:SS")
	f.StringVar(&q.TimeTo, "to", "", "latest time HH:MM:SS")
	f.BoolVar(&q.IncludeStop, "include-stop", false, "embed the stop")
	addPageFlags(cmd, &q.Page)
	return cmd
}

func (c *cli) vehiclesCmd() *cobra.Command {
	var (
		q            golemio.VehiclePositionsQuery
		updatedSince string
	)
	cmd := &cobra.Command{
		Use:   "vehicles",
		Short: "List realtime vehicle positions",
		Args:  cobra.NoArgs,
		RunE: c.jsonRun(func(ctx context.Context, gc *golemio.Client, _ []string) (any, error) {
			if updatedSince != "" {
				ts, err := time.Parse(time.RFC3339, updatedSince)
				if err != nil {
					return nil, fmt.Errorf("parse --updated-since: %w", err)
				}
				q.UpdatedSince = ts
			}
			return gc.VehiclePositions(ctx, q)
		}),
	}
	f := cmd.Flags()
	f.BoolVar(&q.IncludeNotTracking, "include-not-tracking", false, "include vehicles that stopped tracking")
	f.BoolVar(&q.IncludeNotPublic, "include-not-public", false, "include non-public trips")
	f.BoolVar(&q.IncludePositions, "include-positions", false, "include position history")
	f.IntVar(&q.CISTripNumber, "cis-trip-number", 0, "CIS trip number")
	f.StringVar(&q.PreferredTimezone, "timezone", "", "preferred timezone for timestamps")
	f.StringVar(&q.RouteID, "route-id", "", "GTFS route id")
	f.StringVar(&q.RouteShortName, "route-short-name", "", "route short name, e.g. 22")
	f.StringVar(&updatedSince, "updated-since", "", "only vehicles updated after this RFC 3339 time")
	addPageFlags(cmd, &q.Page)
	return cmd
}

func (c *cli) departuresCmd() *cobra.Command {
	var (
		q             golemio.DepartureBoardsQuery
		minutesBefore int
		minutesAfter  int
		airCondition  bool
		total         int
		timeFrom      string
		mode          string
		order         string
		filter        string
		skip          []string
	)
	cmd := &cobra.Command{
		Use:   "departures",
		Short: "Show departure boards for one or more stops",
		Args:  cobra.NoArgs,
		RunE: c.jsonRun(func(ctx context.Context, gc *golemio.Client, _ []string) (any, error) {
			return gc.DepartureBoards(ctx, q)
		}),
	}
	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		f := cmd.Flags()
		if f.Changed("minutes-before") {
			q.MinutesBefore = golemio.Int(minutesBefore)
		}
		if f.Changed("minutes-after") {
			q.MinutesAfter = golemio.Int(minutesAfter)
		}
		if f.Changed("air-condition") {
			q.AirCondition = golemio.Bool(airCondition)
		}
		if f.Changed("total") {
			q.Total = golemio.Int(total)
		}
		if timeFrom != "" {
			ts, err := time.Parse(time.RFC3339, timeFrom)
			if err != nil {
				return fmt.Errorf("parse --time-from: %w", err)
			}
			q.TimeFrom = ts
		}
		q.Mode = golemio.BoardMode(mode)
		q.Order = golemio.BoardOrder(order)
		q.Filter = golemio.BoardFilter(filter)
		for _, s := range skip {
			q.Skip = append(q.Skip, golemio.BoardSkip(s))
		}
		return nil
	}

	f := cmd.Flags()
	f.StringSliceVar(&q.IDs, "id", nil, "GTFS stop id (repeatable)")
	f.StringSliceVar(&q.ASWIDs, "asw-id", nil, "ASW node id (repeatable)")
	f.IntSliceVar(&q.CISIDs, "cis-id", nil, "CIS stop id (repeatable)")
	f.StringSliceVar(&q.Names, "name", nil, "stop name (repeatable)")
	f.IntVar(&minutesBefore, "minutes-before", 0, "include departures up to N minutes in the past")
	f.IntVar(&minutesAfter, "minutes-after", 180, "include departures up to N minutes ahead")
	f.StringVar(&timeFrom, "time-from", "", "board start time, RFC 3339")
	f.BoolVar(&q.IncludeMetroTrains, "include-metro-trains", false, "include metro trains")
	f.BoolVar(&airCondition, "air-condition", true, "report air conditioning")
	f.StringVar(&q.PreferredTimezone, "timezone", "", "preferred timezone (default Europe/Prague)")
	f.StringVar(&mode, "mode", "", "departures, arrivals or mixed")
	f.StringVar(&order, "order", "", "real or timetable")
	f.StringVar(&filter, "filter", "", "row collapsing filter, e.g. routeOnce")
	f.StringSliceVar(&skip, "skip", nil, "untracked, canceled, atStop or onlyAtStop (repeatable)")
	f.IntVar(&total, "total", 0, "total number of rows across stops")
	addPageFlags(cmd, &q.Page)
	return cmd
}

func (c *cli) infoTextsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "infotexts",
		Short: "List public transport info texts",
		Args:  cobra.NoArgs,
		RunE: c.jsonRun(func(ctx context.Context, gc *golemio.Client, _ []string) (any, error) {
			return gc.InfoTexts(ctx)
		}),
	}
}

func (c *cli) feedCmd() *cobra.Command {
	var (
		decode bool
		out    string
	)
	cmd := &cobra.Command{
		Use:       "feed KIND",
		Short:     "Download a GTFS-realtime feed (trip_updates, vehicle_positions, pid_feed, alerts)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"trip_updates", "vehicle_positions", "pid_feed", "alerts"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := golemio.ParseFeedKind(args[0])
			if err != nil {
				return err
			}

			gc := c.client()
			defer gc.Close()

			raw, err := gc.Feed(cmd.Context(), kind)
			if err != nil {
				return err
			}

			if decode {
				msg, err := golemio.UnmarshalFeed(raw)
				if err != nil {
					return err
				}
				raw, err = protojson.MarshalOptions{Multiline: true, UseProtoNames: true}.Marshal(msg)
				if err != nil {
					return fmt.Errorf("render feed: %w", err)
				}
				raw = append(raw, '\n')
			}

			if out != "" {
				if err := os.WriteFile(out, raw, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				return nil
			}
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		},
	}
	cmd.Flags().BoolVar(&decode, "decode", false, "print the feed as JSON instead of raw protobuf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the feed to a file")
	return cmd
}
