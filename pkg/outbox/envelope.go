package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/societyhub-backend/pkg/enums"
)

// EnvelopeVersion is bumped when the envelope shape changes incompatibly.
const EnvelopeVersion = 1

type ActorRole string

const (
	ActorResident ActorRole = "resident"
	ActorProvider ActorRole = "provider"
	// ActorSystem marks transitions nobody triggered directly, such as expiry.
	ActorSystem ActorRole = "system"
)

// ActorRef identifies who caused a voting event.
type ActorRef struct {
	UserID uuid.UUID `json:"userId"`
	Role   ActorRole `json:"role"`
}

// PayloadEnvelope is what outbox_events.payload holds and what subscribers
// receive. It repeats the event type and aggregate so a message is
// self-describing without broker attributes.
type PayloadEnvelope struct {
	Version     int                   `json:"version"`
	EventID     string                `json:"eventId"`
	EventType   enums.OutboxEventType `json:"eventType"`
	AggregateID uuid.UUID             `json:"aggregateId"`
	OccurredAt  time.Time             `json:"occurredAt"`
	Actor       *ActorRef             `json:"actor,omitempty"`
	Data        json.RawMessage       `json:"data"`
}
