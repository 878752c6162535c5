package feeds

import (
	"context"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"

	"github.com/samvad-hq/golemio-go/internal/domain"
	"github.com/samvad-hq/golemio-go/pkg/golemio"
)

// Fetcher pulls the current entities of a source.
type Fetcher interface {
	Kind() string
	Fetch(ctx context.Context, src Source) ([]domain.Entity, error)
}

// FetcherRegistry resolves the fetcher implementation for a given source.
type FetcherRegistry interface {
	FetcherFor(src Source) (Fetcher, error)
}

// FeedDecoder is the part of *golemio.Client the fetchers need.
type FeedDecoder interface {
	DecodeFeed(ctx context.Context, kind golemio.FeedKind) (*gtfs.FeedMessage, error)
}
