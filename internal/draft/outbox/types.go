package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// Event is a row from the draft_outbox table. Metadata is optional
// producer context (acting member, request id) and may be absent.
type Event struct {
	ID        uuid.UUID             `json:"id"`
	DraftID   uuid.UUID             `json:"draft_id"`
	EventType string                `json:"event_type"`
	Payload   json.RawMessage       `json:"payload"`
	Metadata  pqtype.NullRawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
	SentAt    *time.Time            `json:"sent_at,omitempty"`
}
