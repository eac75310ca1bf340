package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/societyhub-backend/pkg/enums"
)

// VotingRequestCreatedEvent is emitted when a resident join or provider listing enters voting.
type VotingRequestCreatedEvent struct {
	VotingRequestID   uuid.UUID               `json:"voting_request_id"`
	RequestType       enums.VotingRequestType `json:"request_type"`
	SocietyID         uuid.UUID               `json:"society_id"`
	InitiatedByID     uuid.UUID               `json:"initiated_by_id"`
	ResidentUserID    *uuid.UUID              `json:"resident_user_id,omitempty"`
	ServiceProviderID *uuid.UUID              `json:"service_provider_id,omitempty"`
	ExpiryTime        time.Time               `json:"expiry_time"`
}

// VotingRequestResolvedEvent is emitted once, by the evaluation that moved the
// request out of pending.
type VotingRequestResolvedEvent struct {
	VotingRequestID   uuid.UUID                 `json:"voting_request_id"`
	RequestType       enums.VotingRequestType   `json:"request_type"`
	SocietyID         uuid.UUID                 `json:"society_id"`
	Status            enums.VotingRequestStatus `json:"status"`
	ApprovedVotes     int64                     `json:"approved_votes"`
	RejectedVotes     int64                     `json:"rejected_votes"`
	SideEffectApplied bool                      `json:"side_effect_applied"`
	ResolvedAt        time.Time                 `json:"resolved_at"`
}
