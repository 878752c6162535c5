package publishers

import (
	"time"

	"github.com/google/uuid"

	"github.com/samvad-hq/golemio-go/internal/domain"
)

// Event is the envelope published downstream for every relayed entity.
type Event struct {
	ID          string        `json:"id"`
	SourceID    string        `json:"source_id"`
	SourceName  string        `json:"source_name"`
	Entity      domain.Entity `json:"entity"`
	CollectedAt time.Time     `json:"collected_at"`
}

// NewEvent wraps an entity collected from the given source.
func NewEvent(sourceID, sourceName string, entity domain.Entity) Event {
	return Event{
		ID:          uuid.NewString(),
		SourceID:    sourceID,
		SourceName:  sourceName,
		Entity:      entity,
		CollectedAt: time.Now().UTC(),
	}
}

// attributes are attached as message metadata by the queue publishers.
func (e Event) attributes() map[string]string {
	attrs := map[string]string{
		"event_id":    e.ID,
		"source_id":   e.SourceID,
		"feed":        e.Entity.Feed,
		"entity_type": e.Entity.Type,
	}
	for k, v := range attrs {
		if v == "" {
			delete(attrs, k)
		}
	}
	return attrs
}
