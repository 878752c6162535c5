package domain

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"
)

// Entity types carried inside a GTFS-realtime feed.
const (
	EntityTripUpdate = "trip_update"
	EntityVehicle    = "vehicle"
	EntityAlert      = "alert"
)

// Entity is one realtime record pulled out of a Golemio feed.
type Entity struct {
	ID        string          `json:"id"`
	Feed      string          `json:"feed"`
	Type      string          `json:"type"`
	TripID    string          `json:"trip_id,omitempty"`
	RouteIDs  []string        `json:"route_ids,omitempty"`
	VehicleID string          `json:"vehicle_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Fingerprint identifies a specific revision of the entity. Entities without
// a timestamp, such as alerts, are told apart by a digest of their payload.
func (e Entity) Fingerprint() string {
	if e.Timestamp.IsZero() {
		if len(e.Payload) == 0 {
			return e.Feed + ":" + e.ID
		}
		return e.Feed + ":" + e.ID + ":" + payloadDigest(e.Payload)
	}
	return e.Feed + ":" + e.ID + ":" + strconv.FormatInt(e.Timestamp.Unix(), 10)
}

// payloadDigest hashes the compacted payload so whitespace does not count as a change.
func payloadDigest(payload json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, payload); err != nil {
		buf.Reset()
		buf.Write(payload)
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:8])
}
