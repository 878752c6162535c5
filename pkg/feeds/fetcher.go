package feeds

import (
	"fmt"
	"strings"
	"sync"

	"github.com/samvad-hq/golemio-go/pkg/golemio"
)

type fetcherRegistry struct {
	mu     sync.RWMutex
	byID   map[string]Fetcher
	byKind map[string]Fetcher
}

// NewFetcherRegistry registers fetchers by their kind. sourceFetchers pins a
// fetcher to a specific source id and wins over the kind lookup.
func NewFetcherRegistry(sourceFetchers map[string]Fetcher, fetchers ...Fetcher) FetcherRegistry {
	reg := &fetcherRegistry{
		byID:   make(map[string]Fetcher),
		byKind: make(map[string]Fetcher),
	}
	for _, f := range fetchers {
		if f == nil {
			continue
		}
		if key := normalizeKey(f.Kind()); key != "" {
			reg.byKind[key] = f
		}
	}
	for id, f := range sourceFetchers {
		if f == nil {
			continue
		}
		if key := normalizeKey(id); key != "" {
			reg.byID[key] = f
		}
	}
	return reg
}

// FetcherFor selects the fetcher for src by id, then by kind.
func (r *fetcherRegistry) FetcherFor(src Source) (Fetcher, error) {
	if r == nil {
		return nil, fmt.Errorf("fetcher registry is nil")
	}
	if strings.TrimSpace(src.ID) == "" {
		return nil, fmt.Errorf("source id is empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if f, ok := r.byID[normalizeKey(src.ID)]; ok {
		return f, nil
	}
	if f, ok := r.byKind[normalizeKey(string(src.Kind))]; ok {
		return f, nil
	}

	return nil, fmt.Errorf("no fetcher registered for source %q (kind %q)", src.ID, src.Kind)
}

// DefaultFetcherRegistry wires a GTFS-realtime fetcher for every feed kind.
func DefaultFetcherRegistry(client FeedDecoder) FetcherRegistry {
	fetchers := make([]Fetcher, 0, len(golemio.FeedKinds))
	for _, kind := range golemio.FeedKinds {
		fetchers = append(fetchers, NewGTFSRTFetcher(client, kind))
	}
	return NewFetcherRegistry(nil, fetchers...)
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
