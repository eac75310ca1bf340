package voting

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/societyhub-backend/pkg/db/models"
	"github.com/angelmondragon/societyhub-backend/pkg/enums"
)

const (
	ApprovalThreshold  = 5
	RejectionThreshold = 3
	VotingWindow       = 5 * time.Minute
)

// Decide returns the status a request should hold given its tally at now.
// Terminal statuses never change. Approval is checked before rejection, and
// both before expiry.
func Decide(status enums.VotingRequestStatus, tally Tally, expiry, now time.Time) enums.VotingRequestStatus {
	if status != enums.VotingRequestStatusPending {
		return status
	}
	switch {
	case tally.Approved >= ApprovalThreshold:
		return enums.VotingRequestStatusApproved
	case tally.Rejected >= RejectionThreshold:
		return enums.VotingRequestStatusRejected
	case now.After(expiry):
		return enums.VotingRequestStatusExpired
	default:
		return enums.VotingRequestStatusPending
	}
}

// voterFacts are the lookups an eligibility decision needs.
type voterFacts struct {
	hasVoted          bool
	residentOfSociety bool
}

// checkEligibility applies the vote rules in order and returns the first
// failing sentinel, or nil.
func checkEligibility(req *models.VotingRequest, voterID uuid.UUID, facts voterFacts, now time.Time) error {
	switch {
	case facts.hasVoted:
		return ErrAlreadyVoted
	case req.Status != enums.VotingRequestStatusPending:
		return ErrNotPending
	case req.IsPastExpiry(now):
		return ErrExpired
	case !facts.residentOfSociety:
		return ErrNotEligibleVoter
	case voterID == req.InitiatedByID:
		return ErrSelfVote
	default:
		return nil
	}
}

// expiryFor fixes the voting window at creation.
func expiryFor(createdAt time.Time) time.Time {
	return createdAt.Add(VotingWindow)
}
