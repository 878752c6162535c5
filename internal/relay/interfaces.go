package relay

import (
	"context"

	"github.com/samvad-hq/golemio-go/pkg/publishers"
)

// EventPublisher delivers events downstream and reports how many sinks accepted each one.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper remembers fingerprints that were already relayed.
type Deduper interface {
	Seen(id string) (bool, error)
	Mark(id string) error
}
