package voting

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/societyhub-backend/pkg/db/models"
	"github.com/angelmondragon/societyhub-backend/pkg/enums"
)

// RequestView is a voting request as shown to one caller.
type RequestView struct {
	ID                 uuid.UUID                 `json:"id"`
	RequestType        enums.VotingRequestType   `json:"request_type"`
	SocietyID          uuid.UUID                 `json:"society_id"`
	InitiatedByID      uuid.UUID                 `json:"initiated_by_id"`
	ResidentUserID     *uuid.UUID                `json:"resident_user_id,omitempty"`
	ServiceProviderID  *uuid.UUID                `json:"service_provider_id,omitempty"`
	Status             enums.VotingRequestStatus `json:"status"`
	CreatedAt          time.Time                 `json:"created_at"`
	UpdatedAt          time.Time                 `json:"updated_at"`
	ExpiryTime         time.Time                 `json:"expiry_time"`
	ApprovedVotesCount int64                     `json:"approved_votes_count"`
	RejectedVotesCount int64                     `json:"rejected_votes_count"`
	HasVoted           bool                      `json:"has_voted"`
}

func toView(req models.VotingRequest, tally Tally, hasVoted bool) RequestView {
	return RequestView{
		ID:                 req.ID,
		RequestType:        req.RequestType,
		SocietyID:          req.SocietyID,
		InitiatedByID:      req.InitiatedByID,
		ResidentUserID:     req.ResidentUserID,
		ServiceProviderID:  req.ServiceProviderID,
		Status:             req.Status,
		CreatedAt:          req.CreatedAt,
		UpdatedAt:          req.UpdatedAt,
		ExpiryTime:         req.ExpiryTime,
		ApprovedVotesCount: tally.Approved,
		RejectedVotesCount: tally.Rejected,
		HasVoted:           hasVoted,
	}
}

// SweepResult summarises one expiry sweep.
type SweepResult struct {
	Scanned  int
	Resolved map[enums.VotingRequestStatus]int
}
