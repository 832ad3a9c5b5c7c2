package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/draftpool/draftroom/internal/draft/events"
)

// DraftEvent is the frame pushed to websocket clients.
type DraftEvent struct {
	ID        string          `json:"id"`
	DraftID   string          `json:"draft_id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

type EventType string

const (
	EventTypePickCommitted      EventType = EventType(events.TypePickCommitted)
	EventTypeDraftStatusChanged EventType = EventType(events.TypeDraftStatusChanged)
)

// ParseEventPayload decodes the event data into its typed payload.
func ParseEventPayload(event *DraftEvent) (interface{}, error) {
	switch event.Type {
	case EventTypePickCommitted:
		var payload events.PickCommittedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeDraftStatusChanged:
		var payload events.DraftStatusChangedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	default:
		return nil, fmt.Errorf("unknown event type: %s", event.Type)
	}
}
